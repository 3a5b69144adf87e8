package inventory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

func TestValidateReturnsEnforcesCheckoutLimit(t *testing.T) {
	day := calendar.MustParse("2025-02-10")
	existing := []domain.Transaction{
		txn("t1", "2025-02-10", "b1", "veg", domain.TransactionCheckOut, 50),
	}
	names := map[string]string{"veg": "Veg Steam Momo"}

	exact := []domain.Transaction{txn("r1", "2025-02-10", "b1", "veg", domain.TransactionCheckIn, 50)}
	if err := ValidateReturns(day, "b1", existing, exact, names); err != nil {
		t.Fatalf("expected exact return to pass, got %v", err)
	}

	over := []domain.Transaction{txn("r1", "2025-02-10", "b1", "veg", domain.TransactionCheckIn, 51)}
	err := ValidateReturns(day, "b1", existing, over, names)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 {
		t.Fatalf("expected a single issue, got %v", err)
	}
	issue := verr.Issues[0]
	if issue.SKUName != "Veg Steam Momo" || issue.Quantity != 51 || issue.Limit != 50 {
		t.Fatalf("unexpected issue detail %+v", issue)
	}
	if !strings.Contains(err.Error(), "Veg Steam Momo") {
		t.Fatalf("expected SKU name in message, got %q", err.Error())
	}
}

func TestValidateReturnsCountsEarlierReturns(t *testing.T) {
	day := calendar.MustParse("2025-02-10")
	existing := []domain.Transaction{
		txn("t1", "2025-02-10", "b1", "veg", domain.TransactionCheckOut, 50),
		txn("t2", "2025-02-10", "b1", "veg", domain.TransactionCheckIn, 30),
		// Another branch and another day never widen the limit.
		txn("t3", "2025-02-10", "b2", "veg", domain.TransactionCheckOut, 100),
		txn("t4", "2025-02-09", "b1", "veg", domain.TransactionCheckOut, 100),
	}
	incoming := []domain.Transaction{
		txn("r1", "2025-02-10", "b1", "veg", domain.TransactionCheckIn, 15),
		txn("r2", "2025-02-10", "b1", "veg", domain.TransactionCheckIn, 10),
	}
	err := ValidateReturns(day, "b1", existing, incoming, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Issues[0].Quantity != 25 || verr.Issues[0].Limit != 20 || verr.Issues[0].SKUName != "veg" {
		t.Fatalf("unexpected issue %+v", verr.Issues[0])
	}
}

func TestValidateReturnsWithoutCheckoutRejects(t *testing.T) {
	day := calendar.MustParse("2025-02-10")
	incoming := []domain.Transaction{txn("r1", "2025-02-10", "b1", "veg", domain.TransactionCheckIn, 1)}
	if err := ValidateReturns(day, "b1", nil, incoming, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error when nothing was taken, got %v", err)
	}
}

func TestEstimateSold(t *testing.T) {
	tests := []struct {
		name      string
		limit     domain.CheckoutLimit
		plateSize int
		want      domain.SoldEstimate
	}{
		{
			name:      "whole plates",
			limit:     domain.CheckoutLimit{SKUID: "veg", Taken: 400, Returned: 80},
			plateSize: 8,
			want:      domain.SoldEstimate{SKUID: "veg", NetConsumed: 320, PlateSize: 8, Plates: 40},
		},
		{
			name:      "leftover pieces",
			limit:     domain.CheckoutLimit{SKUID: "kurkure", Taken: 50, Returned: 0},
			plateSize: 6,
			want:      domain.SoldEstimate{SKUID: "kurkure", NetConsumed: 50, PlateSize: 6, Plates: 8, LeftoverPieces: 2},
		},
		{
			name:      "over return clamps to zero",
			limit:     domain.CheckoutLimit{SKUID: "roll", Taken: 10, Returned: 12},
			plateSize: 2,
			want:      domain.SoldEstimate{SKUID: "roll", PlateSize: 2},
		},
		{
			name:      "no plate size",
			limit:     domain.CheckoutLimit{SKUID: "dip", Taken: 9},
			plateSize: 0,
			want:      domain.SoldEstimate{SKUID: "dip", NetConsumed: 9, LeftoverPieces: 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateSold(tt.limit, tt.plateSize); got != tt.want {
				t.Fatalf("EstimateSold() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlateSizeForFallsBackToRecipe(t *testing.T) {
	sizes := DefaultPlateSizes()
	menu := []domain.MenuItem{
		{ID: "m-side", Ingredients: []domain.Ingredient{{SKUID: "dip", Quantity: decimal.NewFromInt(1)}, {SKUID: "fries", Quantity: decimal.NewFromInt(9)}}},
		{ID: "m-fries", Ingredients: []domain.Ingredient{{SKUID: "fries", Quantity: decimal.NewFromInt(12)}}},
	}

	if got := sizes.PlateSizeFor(domain.SKU{ID: "veg", Category: domain.CategorySteam}, menu); got != 8 {
		t.Fatalf("expected steam plate of 8, got %d", got)
	}
	if got := sizes.PlateSizeFor(domain.SKU{ID: "fries", Category: domain.CategoryFry}, menu); got != 12 {
		t.Fatalf("expected first-ingredient recipe size 12, got %d", got)
	}
	if got := sizes.PlateSizeFor(domain.SKU{ID: "cups", Category: domain.CategoryConsumables}, menu); got != 0 {
		t.Fatalf("expected 0 without recipe, got %d", got)
	}
}

func TestExpectedStockAddsBackTodaysCheckout(t *testing.T) {
	if got := ExpectedStock(120, 40, true); got != 160 {
		t.Fatalf("expected 160, got %d", got)
	}
	if got := ExpectedStock(120, 40, false); got != 120 {
		t.Fatalf("expected 120, got %d", got)
	}
}

func TestPreviousDayReturnPicksLatestOfPreviousDayOnly(t *testing.T) {
	base := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	early := txn("early", "2025-03-01", "b1", "veg", domain.TransactionCheckIn, 10)
	early.Timestamp = base
	late := txn("late", "2025-03-01", "b1", "veg", domain.TransactionCheckIn, 24)
	late.Timestamp = base.Add(2 * time.Hour)
	older := txn("older", "2025-02-27", "b1", "veg", domain.TransactionCheckIn, 99)
	older.Timestamp = base.Add(48 * time.Hour)
	otherSKU := txn("other", "2025-03-01", "b1", "paneer", domain.TransactionCheckIn, 5)
	otherSKU.Timestamp = base.Add(3 * time.Hour)

	txns := []domain.Transaction{late, older, early, otherSKU}

	got, ok := PreviousDayReturn(calendar.MustParse("2025-03-02"), "b1", "veg", txns)
	if !ok || got.ID != "late" {
		t.Fatalf("expected latest return of 1 March, got %+v (found=%v)", got, ok)
	}

	if _, ok := PreviousDayReturn(calendar.MustParse("2025-03-03"), "b1", "veg", txns); ok {
		t.Fatalf("expected no suggestion when the previous day had no return")
	}
}

func TestPhysicalUsage(t *testing.T) {
	txns := []domain.Transaction{
		txn("t1", "2025-01-01", "b1", "veg", domain.TransactionCheckOut, 400),
		txn("t2", "2025-01-01", "b1", "veg", domain.TransactionCheckIn, 80),
		txn("t3", "2025-01-02", "b1", "veg", domain.TransactionWaste, 8),
		txn("t4", "2025-01-03", "b1", "veg", domain.TransactionCheckOut, 1000),
		txn("t5", "2025-01-01", "b2", "veg", domain.TransactionCheckOut, 1000),
		txn("t6", "2025-01-01", domain.FridgeBranchID, "veg", domain.TransactionWaste, 1000),
	}
	used := PhysicalUsage("b1", calendar.MustParse("2025-01-01"), calendar.MustParse("2025-01-02"), txns)
	if used["veg"] != 312 {
		t.Fatalf("expected 312, got %d", used["veg"])
	}
}
