package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/inventory"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/xid"
)

func (s *Service) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	filter.BranchID = strings.TrimSpace(filter.BranchID)
	filter.SKUID = strings.TrimSpace(filter.SKUID)
	return s.repo.ListTransactions(ctx, filter)
}

// RecordTransactions validates one batch and appends it atomically. A failed
// validation returns *inventory.ValidationError and writes nothing.
func (s *Service) RecordTransactions(ctx context.Context, req domain.RecordTransactionsRequest) (domain.RecordTransactionsResponse, error) {
	req.BranchID = strings.TrimSpace(req.BranchID)
	req.Type = domain.TransactionType(strings.ToUpper(strings.TrimSpace(string(req.Type))))
	if req.BranchID == "" && (req.Type == domain.TransactionRestock || req.Type == domain.TransactionAdjustment) {
		req.BranchID = domain.FridgeBranchID
	}

	skus, index, err := s.skuIndex(ctx)
	if err != nil {
		return domain.RecordTransactionsResponse{}, err
	}

	verr := &inventory.ValidationError{}
	if req.Date.IsZero() {
		verr.Field("date", "date is required")
	}
	if !req.Type.Valid() {
		verr.Field("type", fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	if req.BranchID == "" {
		verr.Field("branch_id", "branch is required")
	}
	if req.BranchID == domain.FridgeBranchID && (req.Type == domain.TransactionCheckOut || req.Type == domain.TransactionCheckIn) {
		verr.Field("branch_id", "checkouts and returns must name a branch")
	}
	if req.BranchID != "" && req.BranchID != domain.FridgeBranchID && (req.Type == domain.TransactionRestock || req.Type == domain.TransactionAdjustment) {
		verr.Field("branch_id", "restocks and adjustments apply to the central fridge only")
	}
	if len(req.Items) == 0 {
		verr.Field("items", "at least one item is required")
	}
	for _, item := range req.Items {
		item.SKUID = strings.TrimSpace(item.SKUID)
		sku, ok := index[item.SKUID]
		if !ok {
			verr.Add(inventory.ValidationIssue{
				SKUID:   item.SKUID,
				Field:   "sku_id",
				Message: fmt.Sprintf("unknown sku %q", item.SKUID),
			})
			continue
		}
		switch {
		case req.Type == domain.TransactionAdjustment && item.QuantityPieces == 0:
			verr.Add(inventory.ValidationIssue{
				SKUID:   sku.ID,
				SKUName: sku.Name,
				Field:   "quantity_pieces",
				Message: fmt.Sprintf("%s: adjustment must be non-zero", sku.Name),
			})
		case req.Type != domain.TransactionAdjustment && item.QuantityPieces <= 0:
			verr.Add(inventory.ValidationIssue{
				SKUID:    sku.ID,
				SKUName:  sku.Name,
				Field:    "quantity_pieces",
				Quantity: item.QuantityPieces,
				Message:  fmt.Sprintf("%s: quantity must be positive", sku.Name),
			})
		}
	}
	if err := verr.Err(); err != nil {
		return domain.RecordTransactionsResponse{}, err
	}

	now := s.now().UTC()
	batchID := xid.New("batch")
	user := actorName(ctx)
	txns := make([]domain.Transaction, 0, len(req.Items))
	for _, item := range req.Items {
		txns = append(txns, domain.Transaction{
			ID:             xid.New("txn"),
			BatchID:        batchID,
			Date:           req.Date,
			Timestamp:      now,
			BranchID:       req.BranchID,
			SKUID:          strings.TrimSpace(item.SKUID),
			Type:           req.Type,
			QuantityPieces: item.QuantityPieces,
			UserName:       user,
		})
	}

	// Returns are checked against the same-day checkouts while the store
	// holds the branch-day lock, so concurrent returns cannot overshoot.
	var guard store.AppendGuard
	if req.Type == domain.TransactionCheckIn {
		names := skuNames(skus)
		guard = func(existing []domain.Transaction) error {
			return inventory.ValidateReturns(req.Date, req.BranchID, existing, txns, names)
		}
	}
	if err := s.repo.AppendTransactions(ctx, txns, guard); err != nil {
		return domain.RecordTransactionsResponse{}, err
	}

	s.logAudit(ctx, req.BranchID, "transactions_record", "batch", batchID, fmt.Sprintf("type=%s,date=%s,items=%d", req.Type, req.Date, len(txns)))
	return domain.RecordTransactionsResponse{BatchID: batchID, Transactions: txns}, nil
}

// CarryForward suggests the previous day's latest return as a starting
// checkout quantity. It is never applied automatically.
func (s *Service) CarryForward(ctx context.Context, req domain.CarryForwardRequest) (domain.CarryForwardResponse, error) {
	req.BranchID = strings.TrimSpace(req.BranchID)
	req.SKUID = strings.TrimSpace(req.SKUID)
	if req.Date.IsZero() {
		req.Date = s.Today()
	}
	if req.BranchID == "" || req.SKUID == "" {
		verr := &inventory.ValidationError{}
		verr.Field("branch_id", "branch and sku are required")
		return domain.CarryForwardResponse{}, verr
	}

	previous := req.Date.AddDays(-1)
	txns, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{
		BranchID: req.BranchID,
		SKUID:    req.SKUID,
		From:     previous,
		To:       previous,
	})
	if err != nil {
		return domain.CarryForwardResponse{}, err
	}

	txn, ok := inventory.PreviousDayReturn(req.Date, req.BranchID, req.SKUID, txns)
	if !ok {
		return domain.CarryForwardResponse{Found: false}, nil
	}
	return domain.CarryForwardResponse{Found: true, Transaction: &txn}, nil
}

func (s *Service) Balances(ctx context.Context, scope string) (domain.BalanceReport, error) {
	scope = defaultString(strings.TrimSpace(scope), domain.FridgeBranchID)

	skus, err := s.repo.ListSKUs(ctx)
	if err != nil {
		return domain.BalanceReport{}, err
	}
	txns, err := s.scopeTransactions(ctx, scope, calendar.Date{})
	if err != nil {
		return domain.BalanceReport{}, err
	}

	balances := inventory.ComputeBalances(scope, txns, skus)
	return domain.BalanceReport{
		Scope:    scope,
		Balances: inventory.SortBalances(balances, skus),
	}, nil
}

func (s *Service) scopeTransactions(ctx context.Context, scope string, through calendar.Date) ([]domain.Transaction, error) {
	filter := domain.TransactionFilter{To: through}
	if scope != domain.FridgeBranchID {
		filter.BranchID = scope
	}
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) CheckoutSummary(ctx context.Context, branchID string, date calendar.Date) (domain.CheckoutSummary, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" || branchID == domain.FridgeBranchID {
		verr := &inventory.ValidationError{}
		verr.Field("branch_id", "a branch is required")
		return domain.CheckoutSummary{}, verr
	}
	if date.IsZero() {
		date = s.Today()
	}

	skus, err := s.repo.ListSKUs(ctx)
	if err != nil {
		return domain.CheckoutSummary{}, err
	}
	menuItems, err := s.repo.ListMenuItems(ctx)
	if err != nil {
		return domain.CheckoutSummary{}, err
	}
	txns, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{BranchID: branchID, From: date, To: date})
	if err != nil {
		return domain.CheckoutSummary{}, err
	}

	limits := inventory.ComputeCheckoutLimits(date, branchID, txns)
	rows := make([]domain.CheckoutSummaryRow, 0, len(limits))
	for _, sku := range skus {
		limit, ok := limits[sku.ID]
		if !ok {
			continue
		}
		sold := inventory.EstimateSold(limit, s.plateSizes.PlateSizeFor(sku, menuItems))
		rows = append(rows, domain.CheckoutSummaryRow{
			SKUID:          sku.ID,
			SKUName:        sku.Name,
			Taken:          limit.Taken,
			Returned:       limit.Returned,
			Remaining:      limit.Remaining,
			NetConsumed:    sold.NetConsumed,
			PlateSize:      sold.PlateSize,
			Plates:         sold.Plates,
			LeftoverPieces: sold.LeftoverPieces,
		})
	}

	return domain.CheckoutSummary{BranchID: branchID, Date: date, Rows: rows}, nil
}

// Stocktake compares physical counts with the system balance as of date. The
// result is a comparison only and is never written to the ledger.
func (s *Service) Stocktake(ctx context.Context, req domain.StocktakeRequest) (domain.StocktakeResponse, error) {
	req.Scope = defaultString(strings.TrimSpace(req.Scope), domain.FridgeBranchID)
	if req.Date.IsZero() {
		req.Date = s.Today()
	}

	skus, index, err := s.skuIndex(ctx)
	if err != nil {
		return domain.StocktakeResponse{}, err
	}

	verr := &inventory.ValidationError{}
	if len(req.Counts) == 0 {
		verr.Field("counts", "at least one count is required")
	}
	for _, count := range req.Counts {
		sku, ok := index[count.SKUID]
		if !ok {
			verr.Add(inventory.ValidationIssue{SKUID: count.SKUID, Field: "sku_id", Message: fmt.Sprintf("unknown sku %q", count.SKUID)})
			continue
		}
		if count.CountedPieces < 0 {
			verr.Add(inventory.ValidationIssue{
				SKUID:    sku.ID,
				SKUName:  sku.Name,
				Field:    "counted_pieces",
				Quantity: count.CountedPieces,
				Message:  fmt.Sprintf("%s: count cannot be negative", sku.Name),
			})
		}
	}
	if err := verr.Err(); err != nil {
		return domain.StocktakeResponse{}, err
	}

	txns, err := s.scopeTransactions(ctx, req.Scope, req.Date)
	if err != nil {
		return domain.StocktakeResponse{}, err
	}
	balances := inventory.ComputeBalances(req.Scope, txns, skus)

	takenToday := make(map[string]int)
	for _, txn := range txns {
		if txn.Type == domain.TransactionCheckOut && txn.Date == req.Date && inventory.InScope(req.Scope, txn) {
			takenToday[txn.SKUID] += txn.QuantityPieces
		}
	}

	rows := make([]domain.StocktakeRow, 0, len(req.Counts))
	for _, count := range req.Counts {
		sku := index[count.SKUID]
		system := balances[sku.ID].Balance
		expected := inventory.ExpectedStock(system, takenToday[sku.ID], req.IgnoreTodaysCheckout)
		rows = append(rows, domain.StocktakeRow{
			SKUID:          sku.ID,
			SKUName:        sku.Name,
			SystemPieces:   system,
			AddedBack:      expected - system,
			ExpectedPieces: expected,
			CountedPieces:  count.CountedPieces,
			Variance:       count.CountedPieces - expected,
		})
	}
	slices.SortFunc(rows, func(a, b domain.StocktakeRow) int {
		return index[a.SKUID].Order - index[b.SKUID].Order
	})

	return domain.StocktakeResponse{
		Scope:                req.Scope,
		Date:                 req.Date,
		IgnoreTodaysCheckout: req.IgnoreTodaysCheckout,
		Rows:                 rows,
	}, nil
}
