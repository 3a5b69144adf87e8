package forecast

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/cache"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

// Engine memoises Compute behind a report cache keyed by an input fingerprint.
type Engine struct {
	cache    cache.ReportCache
	cacheTTL time.Duration
}

func NewEngine(cacheStore cache.ReportCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopReportCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
	}
}

func (e *Engine) Suggest(ctx context.Context, in Input) domain.OrderSuggestionReport {
	cacheKey := buildCacheKey(in)

	var cached domain.OrderSuggestionReport
	if ok, err := e.cache.Get(ctx, cacheKey, &cached); err == nil && ok {
		return cached
	} else if err != nil {
		log.Printf("[forecast] WARN: cache read failed: %v", err)
	}

	report := Compute(in)
	if err := e.cache.Set(ctx, cacheKey, report, e.cacheTTL); err != nil {
		log.Printf("[forecast] WARN: cache write failed: %v", err)
	}
	return report
}

// buildCacheKey relies on the ledger being append-only: its size and newest
// entry change on every write.
func buildCacheKey(in Input) string {
	parts := make([]string, 0, len(in.SKUs)+len(in.StorageUnits)+6)
	parts = append(parts, in.Today.String(), in.ArrivalDate.String())
	parts = append(parts, fmt.Sprintf("slack:%t", in.AllocateSlack), "lpp:"+in.LitresPerPacket.String())
	parts = append(parts, LedgerFingerprint(in.Transactions))
	for _, sku := range in.SKUs {
		parts = append(parts, fmt.Sprintf("%s:%s:%d:%d", sku.ID, sku.Category, sku.PiecesPerPacket, sku.Order))
	}
	for _, unit := range in.StorageUnits {
		parts = append(parts, fmt.Sprintf("%s:%s:%s:%t", unit.ID, unit.Type, unit.CapacityLitres, unit.IsActive))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return "forecast:" + hex.EncodeToString(hash[:])
}

// LedgerFingerprint summarises a transaction snapshot by size and newest entry.
func LedgerFingerprint(txns []domain.Transaction) string {
	var newest domain.Transaction
	for _, txn := range txns {
		if txn.Timestamp.After(newest.Timestamp) || (txn.Timestamp.Equal(newest.Timestamp) && txn.ID > newest.ID) {
			newest = txn
		}
	}
	return fmt.Sprintf("n:%d:%s:%d", len(txns), newest.ID, newest.Timestamp.UnixNano())
}
