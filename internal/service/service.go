package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/cache"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/forecast"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/inventory"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/salesimport"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/xid"
)

// ErrForbidden is returned when the actor lacks the admin role.
var ErrForbidden = errors.New("admin role required")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	ReportCache     cache.ReportCache
	ReportCacheTTL  time.Duration
	Location        *time.Location
	LitresPerPacket decimal.Decimal
	SalesParser     salesimport.Parser
	PlateSizes      inventory.PlateSizes
	Now             func() time.Time
}

type Service struct {
	repo            store.Repository
	forecaster      *forecast.Engine
	reportCache     cache.ReportCache
	reportCacheTTL  time.Duration
	location        *time.Location
	litresPerPacket decimal.Decimal
	importer        *salesimport.Importer
	plateSizes      inventory.PlateSizes
	now             func() time.Time
}

func New(repo store.Repository, forecaster *forecast.Engine, opts Options) *Service {
	if opts.ReportCache == nil {
		opts.ReportCache = cache.NoopReportCache{}
	}
	if forecaster == nil {
		forecaster = forecast.NewEngine(opts.ReportCache, opts.ReportCacheTTL)
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if !opts.LitresPerPacket.IsPositive() {
		opts.LitresPerPacket = decimal.NewFromInt(2)
	}
	if opts.PlateSizes == nil {
		opts.PlateSizes = inventory.DefaultPlateSizes()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:            repo,
		forecaster:      forecaster,
		reportCache:     opts.ReportCache,
		reportCacheTTL:  opts.ReportCacheTTL,
		location:        opts.Location,
		litresPerPacket: opts.LitresPerPacket,
		importer:        salesimport.NewImporter(opts.SalesParser),
		plateSizes:      opts.PlateSizes,
		now:             opts.Now,
	}
}

// Today is the trading day in the business timezone.
func (s *Service) Today() calendar.Date {
	return calendar.FromTime(s.now().In(s.location))
}

func (s *Service) ListSKUs(ctx context.Context) ([]domain.SKU, error) {
	return s.repo.ListSKUs(ctx)
}

func (s *Service) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return s.repo.ListBranches(ctx)
}

func (s *Service) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	return s.repo.ListMenuItems(ctx)
}

func (s *Service) ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error) {
	return s.repo.ListStorageUnits(ctx)
}

func (s *Service) ListAuditLogs(ctx context.Context, branchID string, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = s.now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := calendar.Parse(date)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		from = parsed.StartOfDay(s.location).UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, strings.TrimSpace(branchID), from, to, limit)
}

func (s *Service) requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Actor{}, ErrForbidden
	}
	return actor, nil
}

func (s *Service) logAudit(ctx context.Context, branchID string, action string, entityType string, entityID string, detail string) {
	if branchID == "" {
		branchID = domain.FridgeBranchID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		BranchID:      branchID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func (s *Service) skuIndex(ctx context.Context) ([]domain.SKU, map[string]domain.SKU, error) {
	skus, err := s.repo.ListSKUs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list skus: %w", err)
	}
	index := make(map[string]domain.SKU, len(skus))
	for _, sku := range skus {
		index[sku.ID] = sku
	}
	return skus, index, nil
}

func skuNames(skus []domain.SKU) map[string]string {
	names := make(map[string]string, len(skus))
	for _, sku := range skus {
		names[sku.ID] = sku.Name
	}
	return names
}

func actorName(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.Username != "" {
		return actor.Username
	}
	return "system"
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
