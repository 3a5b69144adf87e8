package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/inventory"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/xid"
)

func (s *Service) CreateLedgerEntry(ctx context.Context, req domain.LedgerEntryCreateRequest) (domain.LedgerEntry, error) {
	req.BranchID = strings.TrimSpace(req.BranchID)
	req.Type = domain.LedgerEntryType(strings.ToUpper(strings.TrimSpace(string(req.Type))))
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)
	if req.Date.IsZero() {
		req.Date = s.Today()
	}

	verr := &inventory.ValidationError{}
	if req.BranchID == "" {
		verr.Field("branch_id", "branch is required")
	}
	if req.Type != domain.LedgerIncome && req.Type != domain.LedgerExpense {
		verr.Field("type", "type must be INCOME or EXPENSE")
	}
	if !req.Amount.IsPositive() {
		verr.Field("amount", "amount must be greater than zero")
	}
	if req.Description == "" {
		verr.Field("description", "description is required")
	}
	if err := verr.Err(); err != nil {
		return domain.LedgerEntry{}, err
	}

	created, err := s.repo.CreateLedgerEntry(ctx, domain.LedgerEntry{
		ID:          xid.New("led"),
		BranchID:    req.BranchID,
		Date:        req.Date,
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount.Round(2),
		Description: req.Description,
		Status:      domain.LedgerPending,
		CreatedBy:   actorName(ctx),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	s.logAudit(ctx, created.BranchID, "ledger_create", "ledger_entry", created.ID, fmt.Sprintf("type=%s,amount=%s,category=%s", created.Type, created.Amount.StringFixed(2), created.Category))
	return *created, nil
}

// ReviewLedgerEntry approves or rejects a pending entry. Only admins review,
// and an entry is reviewed at most once.
func (s *Service) ReviewLedgerEntry(ctx context.Context, id string, req domain.LedgerReviewRequest) (domain.LedgerEntry, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	var status domain.LedgerStatus
	switch strings.ToUpper(strings.TrimSpace(req.Decision)) {
	case "APPROVE", string(domain.LedgerApproved):
		status = domain.LedgerApproved
	case "REJECT", string(domain.LedgerRejected):
		status = domain.LedgerRejected
	default:
		verr := &inventory.ValidationError{}
		verr.Field("decision", "decision must be approve or reject")
		return domain.LedgerEntry{}, verr
	}

	reviewed, err := s.repo.ReviewLedgerEntry(ctx, strings.TrimSpace(id), status, actor.Username, strings.TrimSpace(req.Note), s.now().UTC())
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	s.logAudit(ctx, reviewed.BranchID, "ledger_review", "ledger_entry", reviewed.ID, fmt.Sprintf("status=%s", reviewed.Status))
	return *reviewed, nil
}

func (s *Service) ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter, limit int) ([]domain.LedgerEntry, error) {
	filter.BranchID = strings.TrimSpace(filter.BranchID)
	filter.Status = domain.LedgerStatus(strings.ToUpper(strings.TrimSpace(string(filter.Status))))
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.repo.ListLedgerEntries(ctx, filter, limit)
}
