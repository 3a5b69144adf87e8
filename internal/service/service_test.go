package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/cache"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/forecast"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/inventory"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store/memory"
)

var testNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

const branch = "branch-central"

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	reports := cache.NewMemoryReportCache()
	svc := New(repo, forecast.NewEngine(reports, 5*time.Second), Options{
		ReportCache: reports,
		Location:    time.UTC,
		Now:         func() time.Time { return testNow },
	})
	return svc, repo
}

func staffCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "staff", Role: "staff"})
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func record(t *testing.T, svc *Service, branchID string, date string, kind domain.TransactionType, skuID string, qty int) {
	t.Helper()
	_, err := svc.RecordTransactions(staffCtx(), domain.RecordTransactionsRequest{
		BranchID: branchID,
		Date:     calendar.MustParse(date),
		Type:     kind,
		Items:    []domain.TransactionItem{{SKUID: skuID, QuantityPieces: qty}},
	})
	if err != nil {
		t.Fatalf("record %s %s %d: %v", kind, skuID, qty, err)
	}
}

func vegOrder(id string, qty int) domain.Order {
	return domain.Order{
		ID:       id,
		BranchID: branch,
		Date:     calendar.MustParse("2025-01-10"),
		Platform: domain.PlatformPOS,
		Items:    []domain.OrderItem{{MenuItemID: "menu-veg-steam", Name: "Veg Steam Momo", Quantity: qty, Variant: domain.VariantFull}},
	}
}

func TestRecordTransactionsEnforcesReturnLimit(t *testing.T) {
	svc, repo := newTestService()
	record(t, svc, branch, "2025-01-10", domain.TransactionCheckOut, "sku-veg-steam", 50)

	_, err := svc.RecordTransactions(staffCtx(), domain.RecordTransactionsRequest{
		BranchID: branch,
		Date:     calendar.MustParse("2025-01-10"),
		Type:     domain.TransactionCheckIn,
		Items:    []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: 51}},
	})
	if !errors.Is(err, inventory.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *inventory.ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 {
		t.Fatalf("expected one validation issue, got %v", err)
	}
	issue := verr.Issues[0]
	if issue.SKUName != "Veg Steam Momo" || issue.Quantity != 51 || issue.Limit != 50 {
		t.Fatalf("unexpected issue detail %+v", issue)
	}

	txns, _ := repo.ListTransactions(context.Background(), domain.TransactionFilter{})
	if len(txns) != 1 {
		t.Fatalf("rejected return must not be written, have %d transactions", len(txns))
	}

	record(t, svc, branch, "2025-01-10", domain.TransactionCheckIn, "sku-veg-steam", 50)
}

// slowListRepo stands in for a store with round-trip latency on reads.
type slowListRepo struct {
	*memory.Store
}

func (r slowListRepo) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	time.Sleep(5 * time.Millisecond)
	return r.Store.ListTransactions(ctx, filter)
}

func TestRecordTransactionsReturnLimitHoldsUnderConcurrency(t *testing.T) {
	repo := slowListRepo{Store: memory.NewSeeded()}
	reports := cache.NewMemoryReportCache()
	svc := New(repo, forecast.NewEngine(reports, 5*time.Second), Options{
		ReportCache: reports,
		Location:    time.UTC,
		Now:         func() time.Time { return testNow },
	})
	day := calendar.MustParse("2025-01-10")
	record(t, svc, branch, "2025-01-10", domain.TransactionCheckOut, "sku-veg-steam", 50)

	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.RecordTransactions(staffCtx(), domain.RecordTransactionsRequest{
				BranchID: branch,
				Date:     day,
				Type:     domain.TransactionCheckIn,
				Items:    []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: 50}},
			})
		}()
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		if !errors.Is(err, inventory.ErrValidation) {
			t.Fatalf("expected validation error for a late return, got %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one return to be accepted, got %d", accepted)
	}

	txns, err := repo.ListTransactions(context.Background(), domain.TransactionFilter{BranchID: branch, From: day, To: day})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	limit := inventory.ComputeCheckoutLimits(day, branch, txns)["sku-veg-steam"]
	if limit.Taken != 50 || limit.Returned != 50 {
		t.Fatalf("returns must never exceed checkouts, got %+v", limit)
	}
}

func TestRecordTransactionsValidatesBatch(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name string
		req  domain.RecordTransactionsRequest
	}{
		{name: "missing date", req: domain.RecordTransactionsRequest{BranchID: branch, Type: domain.TransactionCheckOut, Items: []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: 1}}}},
		{name: "unknown type", req: domain.RecordTransactionsRequest{BranchID: branch, Date: calendar.MustParse("2025-01-10"), Type: "MOVE", Items: []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: 1}}}},
		{name: "unknown sku", req: domain.RecordTransactionsRequest{BranchID: branch, Date: calendar.MustParse("2025-01-10"), Type: domain.TransactionCheckOut, Items: []domain.TransactionItem{{SKUID: "sku-nope", QuantityPieces: 1}}}},
		{name: "zero adjustment", req: domain.RecordTransactionsRequest{Date: calendar.MustParse("2025-01-10"), Type: domain.TransactionAdjustment, Items: []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: 0}}}},
		{name: "negative checkout", req: domain.RecordTransactionsRequest{BranchID: branch, Date: calendar.MustParse("2025-01-10"), Type: domain.TransactionCheckOut, Items: []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: -5}}}},
		{name: "checkout from fridge", req: domain.RecordTransactionsRequest{BranchID: domain.FridgeBranchID, Date: calendar.MustParse("2025-01-10"), Type: domain.TransactionCheckOut, Items: []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: 5}}}},
		{name: "restock at branch", req: domain.RecordTransactionsRequest{BranchID: branch, Date: calendar.MustParse("2025-01-10"), Type: domain.TransactionRestock, Items: []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: 100}}}},
		{name: "adjustment at branch", req: domain.RecordTransactionsRequest{BranchID: branch, Date: calendar.MustParse("2025-01-10"), Type: domain.TransactionAdjustment, Items: []domain.TransactionItem{{SKUID: "sku-veg-steam", QuantityPieces: -3}}}},
		{name: "no items", req: domain.RecordTransactionsRequest{BranchID: branch, Date: calendar.MustParse("2025-01-10"), Type: domain.TransactionCheckOut}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordTransactions(staffCtx(), tc.req); !errors.Is(err, inventory.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordTransactionsSharesBatchAndDefaultsToFridge(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.RecordTransactions(staffCtx(), domain.RecordTransactionsRequest{
		Date: calendar.MustParse("2025-01-10"),
		Type: domain.TransactionRestock,
		Items: []domain.TransactionItem{
			{SKUID: "sku-veg-steam", QuantityPieces: 500},
			{SKUID: "sku-chicken-steam", QuantityPieces: 250},
		},
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if len(resp.Transactions) != 2 {
		t.Fatalf("expected two transactions, got %d", len(resp.Transactions))
	}
	for _, txn := range resp.Transactions {
		if txn.BranchID != domain.FridgeBranchID || txn.BatchID != resp.BatchID || !txn.Timestamp.Equal(testNow) || txn.UserName != "staff" {
			t.Fatalf("unexpected transaction %+v", txn)
		}
	}
}

func TestBalancesFoldTheLedger(t *testing.T) {
	svc, _ := newTestService()
	record(t, svc, "", "2025-01-09", domain.TransactionRestock, "sku-veg-steam", 500)
	record(t, svc, branch, "2025-01-10", domain.TransactionCheckOut, "sku-veg-steam", 400)
	record(t, svc, branch, "2025-01-10", domain.TransactionCheckIn, "sku-veg-steam", 80)
	record(t, svc, branch, "2025-01-10", domain.TransactionWaste, "sku-veg-steam", 10)
	record(t, svc, domain.FridgeBranchID, "2025-01-10", domain.TransactionWaste, "sku-veg-steam", 5)

	report, err := svc.Balances(context.Background(), "")
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if report.Scope != domain.FridgeBranchID {
		t.Fatalf("expected FRIDGE scope, got %s", report.Scope)
	}
	if len(report.Balances) == 0 || report.Balances[0].SKUID != "sku-veg-steam" {
		t.Fatalf("expected balances ordered by display rank, got %+v", report.Balances)
	}
	if got := report.Balances[0].Balance; got != 175 {
		t.Fatalf("expected 500-400+80-5 = 175, got %d", got)
	}
	for _, balance := range report.Balances[1:] {
		if balance.Balance != 0 {
			t.Fatalf("untouched sku %s should report zero, got %d", balance.SKUID, balance.Balance)
		}
	}
}

func TestCarryForwardUsesPreviousDayOnly(t *testing.T) {
	svc, _ := newTestService()
	record(t, svc, branch, "2025-01-08", domain.TransactionCheckOut, "sku-veg-steam", 100)
	record(t, svc, branch, "2025-01-08", domain.TransactionCheckIn, "sku-veg-steam", 30)

	resp, err := svc.CarryForward(context.Background(), domain.CarryForwardRequest{BranchID: branch, SKUID: "sku-veg-steam", Date: calendar.MustParse("2025-01-10")})
	if err != nil {
		t.Fatalf("carry forward: %v", err)
	}
	if resp.Found {
		t.Fatalf("a return from two days ago must not be suggested")
	}

	record(t, svc, branch, "2025-01-09", domain.TransactionCheckOut, "sku-veg-steam", 100)
	record(t, svc, branch, "2025-01-09", domain.TransactionCheckIn, "sku-veg-steam", 24)

	resp, err = svc.CarryForward(context.Background(), domain.CarryForwardRequest{BranchID: branch, SKUID: "sku-veg-steam", Date: calendar.MustParse("2025-01-10")})
	if err != nil {
		t.Fatalf("carry forward: %v", err)
	}
	if !resp.Found || resp.Transaction.QuantityPieces != 24 {
		t.Fatalf("expected yesterday's return of 24, got %+v", resp)
	}
}

func TestCheckoutAndReconciliationEndToEnd(t *testing.T) {
	svc, _ := newTestService()
	ctx := staffCtx()
	day := calendar.MustParse("2025-01-10")

	record(t, svc, branch, "2025-01-10", domain.TransactionCheckOut, "sku-veg-steam", 400)
	record(t, svc, branch, "2025-01-10", domain.TransactionCheckIn, "sku-veg-steam", 80)
	if _, err := svc.RecordOrder(ctx, vegOrder("order-1", 40)); err != nil {
		t.Fatalf("record order: %v", err)
	}

	summary, err := svc.CheckoutSummary(ctx, branch, day)
	if err != nil {
		t.Fatalf("checkout summary: %v", err)
	}
	if len(summary.Rows) != 1 {
		t.Fatalf("expected one summary row, got %+v", summary.Rows)
	}
	row := summary.Rows[0]
	if row.Taken != 400 || row.NetConsumed != 320 || row.PlateSize != 8 || row.Plates != 40 || row.LeftoverPieces != 0 {
		t.Fatalf("unexpected checkout summary %+v", row)
	}

	report, err := svc.Reconciliation(ctx, branch, day, day)
	if err != nil {
		t.Fatalf("reconciliation: %v", err)
	}
	var veg *domain.ReconciliationRow
	for i := range report.Rows {
		if report.Rows[i].SKUID == "sku-veg-steam" {
			veg = &report.Rows[i]
		}
	}
	if veg == nil {
		t.Fatalf("missing veg row in %+v", report.Rows)
	}
	if !veg.Used.Equal(decimal.NewFromInt(320)) || !veg.Sold.Equal(decimal.NewFromInt(320)) || !veg.Diff.IsZero() {
		t.Fatalf("unexpected veg row %+v", veg)
	}
	if !veg.Accuracy.Equal(decimal.NewFromInt(100)) || veg.SKUName != "Veg Steam Momo" {
		t.Fatalf("expected 100%% accuracy with name, got %+v", veg)
	}
	if len(report.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", report.Alerts)
	}
	for _, missing := range report.MissingPlates {
		if missing.Plates != 0 {
			t.Fatalf("balanced day should report no missing plates, got %+v", missing)
		}
	}
}

func TestReconciliationFlagsStockLossAndRefreshesAfterWrites(t *testing.T) {
	svc, _ := newTestService()
	ctx := staffCtx()
	day := calendar.MustParse("2025-01-10")

	record(t, svc, branch, "2025-01-10", domain.TransactionCheckOut, "sku-veg-steam", 400)
	if _, err := svc.RecordOrder(ctx, vegOrder("order-1", 40)); err != nil {
		t.Fatalf("record order: %v", err)
	}

	first, err := svc.Reconciliation(ctx, branch, day, day)
	if err != nil {
		t.Fatalf("reconciliation: %v", err)
	}
	if !first.Totals.Diff.IsNegative() {
		t.Fatalf("expected a loss, got totals %+v", first.Totals)
	}
	foundLoss := false
	for _, alert := range first.Alerts {
		if alert.Code == "stock_loss" && alert.SKUID == "sku-veg-steam" {
			foundLoss = true
		}
	}
	if !foundLoss {
		t.Fatalf("expected stock_loss alert, got %+v", first.Alerts)
	}
	for _, missing := range first.MissingPlates {
		if missing.MenuItemID == "menu-veg-steam" && missing.Plates != 10 {
			t.Fatalf("expected 80 lost pieces to be 10 missing plates, got %+v", missing)
		}
	}

	again, err := svc.Reconciliation(ctx, branch, day, day)
	if err != nil {
		t.Fatalf("reconciliation: %v", err)
	}
	if !again.Totals.Diff.Equal(first.Totals.Diff) {
		t.Fatalf("repeat run changed totals: %s vs %s", again.Totals.Diff, first.Totals.Diff)
	}

	record(t, svc, branch, "2025-01-10", domain.TransactionCheckIn, "sku-veg-steam", 80)
	refreshed, err := svc.Reconciliation(ctx, branch, day, day)
	if err != nil {
		t.Fatalf("reconciliation: %v", err)
	}
	if refreshed.Totals.Diff.Equal(first.Totals.Diff) {
		t.Fatalf("report did not refresh after a ledger write")
	}
}

func TestReconciliationRejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Reconciliation(context.Background(), branch, calendar.MustParse("2025-01-10"), calendar.MustParse("2025-01-01"))
	if !errors.Is(err, inventory.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStocktakeOptionallyAddsBackTodaysCheckout(t *testing.T) {
	svc, _ := newTestService()
	record(t, svc, "", "2025-01-09", domain.TransactionRestock, "sku-veg-steam", 500)
	record(t, svc, branch, "2025-01-10", domain.TransactionCheckOut, "sku-veg-steam", 400)

	req := domain.StocktakeRequest{
		Date:   calendar.MustParse("2025-01-10"),
		Counts: []domain.StocktakeCount{{SKUID: "sku-veg-steam", CountedPieces: 90}},
	}
	plain, err := svc.Stocktake(context.Background(), req)
	if err != nil {
		t.Fatalf("stocktake: %v", err)
	}
	if row := plain.Rows[0]; row.SystemPieces != 100 || row.ExpectedPieces != 100 || row.Variance != -10 {
		t.Fatalf("unexpected stocktake row %+v", row)
	}

	req.IgnoreTodaysCheckout = true
	addedBack, err := svc.Stocktake(context.Background(), req)
	if err != nil {
		t.Fatalf("stocktake: %v", err)
	}
	if row := addedBack.Rows[0]; row.AddedBack != 400 || row.ExpectedPieces != 500 || row.Variance != -410 {
		t.Fatalf("unexpected stocktake row %+v", row)
	}

	again, _ := svc.Balances(context.Background(), domain.FridgeBranchID)
	if again.Balances[0].Balance != 100 {
		t.Fatalf("stocktake must not write to the ledger, balance now %d", again.Balances[0].Balance)
	}
}

func TestImportSalesStatementFeedsAttribution(t *testing.T) {
	svc, _ := newTestService()
	ctx := staffCtx()
	day := calendar.MustParse("2025-01-10")

	if _, err := svc.RecordOrder(ctx, vegOrder("order-1", 40)); err != nil {
		t.Fatalf("record order: %v", err)
	}
	res, err := svc.ImportSalesStatement(ctx, domain.SalesImportRequest{
		BranchID: branch,
		Date:     day,
		Platform: "zomato",
		Text:     "Veg Steam Momo 24\nMystery Platter 3",
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Parser != "text" || len(res.Records) != 2 || len(res.Warnings) != 1 {
		t.Fatalf("unexpected import result %+v", res)
	}
	for _, record := range res.Records {
		if record.SKUID == "sku-veg-steam" && record.Quantity != 192 {
			t.Fatalf("expected 24 plates to be stored as 192 pieces, got %+v", record)
		}
	}

	report, err := svc.Attribution(ctx, branch, day, day)
	if err != nil {
		t.Fatalf("attribution: %v", err)
	}
	if got := report.Result.Billed["sku-veg-steam"]; !got.Equal(decimal.NewFromInt(512)) {
		t.Fatalf("expected 320 from orders plus 192 from zomato, got %s", got)
	}
	if got := report.Result.Billed["sku-dip-cup"]; !got.Equal(decimal.NewFromInt(64)) {
		t.Fatalf("expected 40 dips from orders plus 24 from zomato, got %s", got)
	}
	if len(report.RecordPlatforms) != 1 || report.RecordPlatforms[0] != domain.PlatformZomato {
		t.Fatalf("unexpected record platforms %+v", report.RecordPlatforms)
	}
}

func TestImportSalesStatementValidates(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ImportSalesStatement(staffCtx(), domain.SalesImportRequest{BranchID: branch, Platform: "UBER", Text: ""})
	var verr *inventory.ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 2 {
		t.Fatalf("expected platform and text issues, got %v", err)
	}
}

func TestRecordOrderRejectsEmptyOrder(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.RecordOrder(staffCtx(), domain.Order{BranchID: branch, Date: calendar.MustParse("2025-01-10")})
	if !errors.Is(err, inventory.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderSuggestionExcludesConsumables(t *testing.T) {
	svc, _ := newTestService()
	record(t, svc, branch, "2025-01-08", domain.TransactionCheckOut, "sku-veg-steam", 350)
	record(t, svc, branch, "2025-01-09", domain.TransactionCheckOut, "sku-dip-cup", 200)

	report, err := svc.OrderSuggestion(context.Background(), domain.OrderSuggestionRequest{ArrivalDate: calendar.MustParse("2025-01-12")})
	if err != nil {
		t.Fatalf("order suggestion: %v", err)
	}
	if report.Today != calendar.MustParse("2025-01-10") || report.DaysToArrival != 2 {
		t.Fatalf("unexpected dates %+v", report)
	}
	if len(report.Rows) == 0 || report.Rows[0].SKUID != "sku-veg-steam" {
		t.Fatalf("expected veg steam to lead, got %+v", report.Rows)
	}
	for _, row := range report.Rows {
		if row.SKUID == "sku-dip-cup" {
			t.Fatalf("consumables must not be suggested")
		}
	}
	if !report.CapacityBounded || report.CapacityPackets != 150 {
		t.Fatalf("expected 300L active freezer at 2L per packet, got %+v", report)
	}
}

func TestLedgerApprovalFlow(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateLedgerEntry(staffCtx(), domain.LedgerEntryCreateRequest{BranchID: branch, Type: domain.LedgerExpense})
	var verr *inventory.ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 2 {
		t.Fatalf("expected amount and description issues, got %v", err)
	}

	entry, err := svc.CreateLedgerEntry(staffCtx(), domain.LedgerEntryCreateRequest{
		BranchID:    branch,
		Type:        "expense",
		Amount:      decimal.RequireFromString("450.5"),
		Description: "gas cylinder",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.Status != domain.LedgerPending || entry.CreatedBy != "staff" || entry.Date != calendar.MustParse("2025-01-10") {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if _, err := svc.ReviewLedgerEntry(staffCtx(), entry.ID, domain.LedgerReviewRequest{Decision: "approve"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff must not review, got %v", err)
	}

	reviewed, err := svc.ReviewLedgerEntry(adminCtx(), entry.ID, domain.LedgerReviewRequest{Decision: "approve", Note: "receipt checked"})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.LedgerApproved || reviewed.ReviewedBy != "admin" {
		t.Fatalf("unexpected reviewed entry %+v", reviewed)
	}

	if _, err := svc.ReviewLedgerEntry(adminCtx(), entry.ID, domain.LedgerReviewRequest{Decision: "reject"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on second review, got %v", err)
	}

	pending, err := svc.ListLedgerEntries(context.Background(), domain.LedgerEntryFilter{Status: "pending"}, 0)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected no pending entries, got %d (%v)", len(pending), err)
	}
}

func TestWritesAreAudited(t *testing.T) {
	svc, _ := newTestService()
	record(t, svc, branch, "2025-01-10", domain.TransactionCheckOut, "sku-veg-steam", 100)

	logs, err := svc.ListAuditLogs(context.Background(), branch, "2025-01-10", 10)
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != "transactions_record" || logs[0].ActorUsername != "staff" {
		t.Fatalf("unexpected audit logs %+v", logs)
	}
}
