package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store"
)

func TestAppendTransactionsIsAllOrNothing(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	day := calendar.MustParse("2025-01-10")

	first := domain.Transaction{ID: "t1", Date: day, BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 100}
	if err := s.AppendTransactions(ctx, []domain.Transaction{first}, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	batch := []domain.Transaction{
		{ID: "t2", Date: day, BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 50},
		first,
	}
	if err := s.AppendTransactions(ctx, batch, nil); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate id, got %v", err)
	}

	txns, err := s.ListTransactions(ctx, domain.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected rejected batch to leave one transaction, got %d", len(txns))
	}
}

func TestAppendTransactionsGuardSeesBranchDay(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	day := calendar.MustParse("2025-01-10")

	seed := []domain.Transaction{
		{ID: "t1", Date: day, BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 40},
		{ID: "t2", Date: day, BranchID: "branch-station", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 10},
		{ID: "t3", Date: day.AddDays(-1), BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 5},
	}
	if err := s.AppendTransactions(ctx, seed, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	errFull := errors.New("full")
	var seen []string
	incoming := []domain.Transaction{{ID: "t4", Date: day, BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckIn, QuantityPieces: 41}}
	err := s.AppendTransactions(ctx, incoming, func(existing []domain.Transaction) error {
		for _, txn := range existing {
			seen = append(seen, txn.ID)
		}
		return errFull
	})
	if !errors.Is(err, errFull) {
		t.Fatalf("expected guard error, got %v", err)
	}
	if len(seen) != 1 || seen[0] != "t1" {
		t.Fatalf("guard should see only the same branch and day, got %v", seen)
	}

	txns, _ := s.ListTransactions(ctx, domain.TransactionFilter{})
	if len(txns) != len(seed) {
		t.Fatalf("rejected batch must not be written, have %d transactions", len(txns))
	}

	mixed := []domain.Transaction{
		{ID: "t5", Date: day, BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckIn, QuantityPieces: 1},
		{ID: "t6", Date: day, BranchID: "branch-station", SKUID: "sku-veg-steam", Type: domain.TransactionCheckIn, QuantityPieces: 1},
	}
	if err := s.AppendTransactions(ctx, mixed, func([]domain.Transaction) error { return nil }); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for a guarded batch spanning branches, got %v", err)
	}
}

func TestListTransactionsFiltersAndSorts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	at := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	batch := []domain.Transaction{
		{ID: "c", Date: calendar.MustParse("2025-01-11"), Timestamp: at, BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 1},
		{ID: "b", Date: calendar.MustParse("2025-01-10"), Timestamp: at.Add(time.Hour), BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckIn, QuantityPieces: 1},
		{ID: "a", Date: calendar.MustParse("2025-01-10"), Timestamp: at, BranchID: "branch-central", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 1},
		{ID: "z", Date: calendar.MustParse("2025-01-10"), Timestamp: at, BranchID: "branch-station", SKUID: "sku-veg-steam", Type: domain.TransactionCheckOut, QuantityPieces: 1},
	}
	if err := s.AppendTransactions(ctx, batch, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	txns, err := s.ListTransactions(ctx, domain.TransactionFilter{
		BranchID: "branch-central",
		From:     calendar.MustParse("2025-01-10"),
		To:       calendar.MustParse("2025-01-10"),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 2 || txns[0].ID != "a" || txns[1].ID != "b" {
		t.Fatalf("unexpected transactions %+v", txns)
	}
}

func TestReviewLedgerEntryOnlyOnce(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.CreateLedgerEntry(ctx, domain.LedgerEntry{
		ID:          "led-1",
		BranchID:    "branch-central",
		Date:        calendar.MustParse("2025-01-10"),
		Type:        domain.LedgerExpense,
		Amount:      decimal.NewFromInt(450),
		Description: "gas cylinder",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reviewed, err := s.ReviewLedgerEntry(ctx, "led-1", domain.LedgerApproved, "admin", "ok", time.Now())
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.LedgerApproved || reviewed.ReviewedAt == nil {
		t.Fatalf("unexpected reviewed entry %+v", reviewed)
	}

	if _, err := s.ReviewLedgerEntry(ctx, "led-1", domain.LedgerRejected, "admin", "", time.Now()); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on second review, got %v", err)
	}
	if _, err := s.ReviewLedgerEntry(ctx, "missing", domain.LedgerApproved, "admin", "", time.Now()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOrdersReturnsCopies(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	order := domain.Order{
		ID:       "o1",
		BranchID: "branch-central",
		Date:     calendar.MustParse("2025-01-10"),
		Status:   domain.OrderStatusCompleted,
		Items:    []domain.OrderItem{{MenuItemID: "menu-veg-steam", Quantity: 2}},
	}
	if _, err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	orders, err := s.ListOrders(ctx, domain.OrderFilter{BranchID: "branch-central"})
	if err != nil || len(orders) != 1 {
		t.Fatalf("list orders: %v (%d)", err, len(orders))
	}
	orders[0].Items[0].Quantity = 99

	again, _ := s.ListOrders(ctx, domain.OrderFilter{BranchID: "branch-central"})
	if again[0].Items[0].Quantity != 2 {
		t.Fatalf("stored order was mutated through a returned copy")
	}
}
