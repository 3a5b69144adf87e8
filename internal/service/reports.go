package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/forecast"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/inventory"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/salesimport"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/xid"
)

func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	filter.BranchID = strings.TrimSpace(filter.BranchID)
	return s.repo.ListOrders(ctx, filter)
}

// RecordOrder stores a completed or cancelled order handed over by the POS.
func (s *Service) RecordOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	order.ID = strings.TrimSpace(order.ID)
	order.BranchID = strings.TrimSpace(order.BranchID)
	order.Platform = domain.ParsePlatform(defaultString(string(order.Platform), string(domain.PlatformPOS)))
	order.Status = domain.OrderStatus(strings.ToUpper(defaultString(string(order.Status), string(domain.OrderStatusCompleted))))
	if order.ID == "" {
		order.ID = xid.New("order")
	}
	if order.Timestamp.IsZero() {
		order.Timestamp = s.now().UTC()
	}

	verr := &inventory.ValidationError{}
	if order.BranchID == "" || order.BranchID == domain.FridgeBranchID {
		verr.Field("branch_id", "a branch is required")
	}
	if order.Date.IsZero() {
		verr.Field("date", "date is required")
	}
	if !order.Platform.Valid() {
		verr.Field("platform", fmt.Sprintf("unknown platform %q", order.Platform))
	}
	if order.Status != domain.OrderStatusCompleted && order.Status != domain.OrderStatusCancelled {
		verr.Field("status", fmt.Sprintf("unknown order status %q", order.Status))
	}
	if len(order.Items) == 0 && len(order.CustomSKUItems) == 0 {
		verr.Field("items", "order has no items")
	}
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			verr.Field("items", fmt.Sprintf("%s: quantity must be positive", defaultString(item.Name, item.MenuItemID)))
		}
		if item.Variant != "" && item.Variant != domain.VariantFull && item.Variant != domain.VariantHalf {
			verr.Field("items", fmt.Sprintf("%s: unknown variant %q", defaultString(item.Name, item.MenuItemID), item.Variant))
		}
	}
	for _, custom := range order.CustomSKUItems {
		if custom.SKUID == "" || !custom.Quantity.IsPositive() {
			verr.Field("custom_sku_items", "custom items need a sku and a positive quantity")
		}
	}
	if order.TotalAmount.IsNegative() {
		verr.Field("total_amount", "total cannot be negative")
	}
	if err := verr.Err(); err != nil {
		return domain.Order{}, err
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	s.logAudit(ctx, created.BranchID, "order_record", "order", created.ID, fmt.Sprintf("platform=%s,status=%s,items=%d,total=%s", created.Platform, created.Status, len(created.Items), created.TotalAmount))
	return *created, nil
}

type reportInputs struct {
	skus      []domain.SKU
	menuItems []domain.MenuItem
	txns      []domain.Transaction
	orders    []domain.Order
	records   []domain.SalesRecord
}

func (s *Service) loadReportInputs(ctx context.Context, branchID string, from calendar.Date, to calendar.Date) (reportInputs, error) {
	var in reportInputs
	var err error
	if in.skus, err = s.repo.ListSKUs(ctx); err != nil {
		return in, fmt.Errorf("list skus: %w", err)
	}
	if in.menuItems, err = s.repo.ListMenuItems(ctx); err != nil {
		return in, fmt.Errorf("list menu items: %w", err)
	}
	if in.txns, err = s.repo.ListTransactions(ctx, domain.TransactionFilter{BranchID: branchID, From: from, To: to}); err != nil {
		return in, fmt.Errorf("list transactions: %w", err)
	}
	if in.orders, err = s.repo.ListOrders(ctx, domain.OrderFilter{BranchID: branchID, From: from, To: to}); err != nil {
		return in, fmt.Errorf("list orders: %w", err)
	}
	if in.records, err = s.repo.ListSalesRecords(ctx, domain.SalesRecordFilter{BranchID: branchID, From: from, To: to}); err != nil {
		return in, fmt.Errorf("list sales records: %w", err)
	}
	return in, nil
}

func (s *Service) normalizeRange(branchID string, from calendar.Date, to calendar.Date) (string, calendar.Date, calendar.Date, error) {
	branchID = strings.TrimSpace(branchID)
	if to.IsZero() {
		to = s.Today()
	}
	if from.IsZero() {
		from = to
	}
	if from.After(to) {
		verr := &inventory.ValidationError{}
		verr.Field("from", "from must not be after to")
		return "", calendar.Date{}, calendar.Date{}, verr
	}
	return branchID, from, to, nil
}

func attribute(in reportInputs) (domain.AttributionResult, []domain.Platform) {
	result := inventory.ComputeAttribution(in.orders, in.menuItems)
	recordBilled, platforms := inventory.AttributeSalesRecords(in.records, in.orders)
	result.Billed = inventory.MergeBilled(result.Billed, recordBilled)
	return result, platforms
}

// Attribution reports billed SKU consumption from orders, plus platform sales
// records for platforms without orders in the range.
func (s *Service) Attribution(ctx context.Context, branchID string, from calendar.Date, to calendar.Date) (domain.AttributionReport, error) {
	branchID, from, to, err := s.normalizeRange(branchID, from, to)
	if err != nil {
		return domain.AttributionReport{}, err
	}
	in, err := s.loadReportInputs(ctx, branchID, from, to)
	if err != nil {
		return domain.AttributionReport{}, err
	}

	result, platforms := attribute(in)
	return domain.AttributionReport{
		BranchID:        branchID,
		From:            from,
		To:              to,
		RecordPlatforms: platforms,
		Result:          result,
	}, nil
}

// Reconciliation compares ledger usage with billed consumption. An empty
// branch reconciles every branch together.
func (s *Service) Reconciliation(ctx context.Context, branchID string, from calendar.Date, to calendar.Date) (domain.ReconciliationReport, error) {
	branchID, from, to, err := s.normalizeRange(branchID, from, to)
	if err != nil {
		return domain.ReconciliationReport{}, err
	}
	in, err := s.loadReportInputs(ctx, branchID, from, to)
	if err != nil {
		return domain.ReconciliationReport{}, err
	}

	cacheKey := reconciliationCacheKey(branchID, from, to, in)
	var cached domain.ReconciliationReport
	if ok, err := s.reportCache.Get(ctx, cacheKey, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: reconciliation cache read failed: %v", err)
	}

	report := buildReconciliation(branchID, from, to, in)
	if err := s.reportCache.Set(ctx, cacheKey, report, s.reportCacheTTL); err != nil {
		log.Printf("[service] WARN: reconciliation cache write failed: %v", err)
	}
	return report, nil
}

func buildReconciliation(branchID string, from calendar.Date, to calendar.Date, in reportInputs) domain.ReconciliationReport {
	used := inventory.PhysicalUsage(branchID, from, to, in.txns)
	attribution, _ := attribute(in)
	rows, totals := inventory.ComputeReconciliation(used, attribution.Billed)

	names := skuNames(in.skus)
	for i := range rows {
		rows[i].SKUName = names[rows[i].SKUID]
	}

	return domain.ReconciliationReport{
		BranchID:      branchID,
		From:          from,
		To:            to,
		Rows:          rows,
		Totals:        totals,
		MissingPlates: inventory.EstimateMissingPlates(in.menuItems, rows, attribution.ItemSales),
		Gaps:          attribution.Gaps,
		Alerts:        inventory.VarianceAlerts(rows, attribution.Gaps),
	}
}

// reconciliationCacheKey relies on every input collection being append-only
// apart from the recipe book, which is hashed in full.
func reconciliationCacheKey(branchID string, from calendar.Date, to calendar.Date, in reportInputs) string {
	parts := []string{branchID, from.String(), to.String(), forecast.LedgerFingerprint(in.txns)}

	newestOrder := ""
	for _, order := range in.orders {
		if order.ID > newestOrder {
			newestOrder = order.ID
		}
	}
	parts = append(parts, fmt.Sprintf("orders:%d:%s", len(in.orders), newestOrder))

	records := 0
	for _, record := range in.records {
		records += record.Quantity
	}
	parts = append(parts, fmt.Sprintf("records:%d:%d", len(in.records), records))

	for _, item := range in.menuItems {
		parts = append(parts, item.ID)
		for _, ingredient := range item.Ingredients {
			parts = append(parts, ingredient.SKUID+"="+ingredient.Quantity.String())
		}
		parts = append(parts, "half")
		for _, ingredient := range item.HalfIngredients {
			parts = append(parts, ingredient.SKUID+"="+ingredient.Quantity.String())
		}
	}
	for _, sku := range in.skus {
		parts = append(parts, sku.ID+":"+sku.Name)
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return "reconciliation:" + hex.EncodeToString(hash[:])
}

// OrderSuggestion runs the forecaster against the business-local today.
func (s *Service) OrderSuggestion(ctx context.Context, req domain.OrderSuggestionRequest) (domain.OrderSuggestionReport, error) {
	today := s.Today()
	if req.ArrivalDate.IsZero() {
		req.ArrivalDate = today
	}

	skus, err := s.repo.ListSKUs(ctx)
	if err != nil {
		return domain.OrderSuggestionReport{}, fmt.Errorf("list skus: %w", err)
	}
	units, err := s.repo.ListStorageUnits(ctx)
	if err != nil {
		return domain.OrderSuggestionReport{}, fmt.Errorf("list storage units: %w", err)
	}
	txns, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{
		From: today.AddDays(-forecast.LongWindowDays),
		To:   today,
	})
	if err != nil {
		return domain.OrderSuggestionReport{}, fmt.Errorf("list transactions: %w", err)
	}

	return s.forecaster.Suggest(ctx, forecast.Input{
		Today:           today,
		ArrivalDate:     req.ArrivalDate,
		Transactions:    txns,
		SKUs:            skus,
		StorageUnits:    units,
		LitresPerPacket: s.litresPerPacket,
		AllocateSlack:   req.AllocateSlack,
	}), nil
}

func (s *Service) ListSalesRecords(ctx context.Context, filter domain.SalesRecordFilter) ([]domain.SalesRecord, error) {
	filter.BranchID = strings.TrimSpace(filter.BranchID)
	return s.repo.ListSalesRecords(ctx, filter)
}

// ImportSalesStatement parses a pasted platform statement into sales records.
// Lines that match no SKU come back as warnings and are not stored.
func (s *Service) ImportSalesStatement(ctx context.Context, req domain.SalesImportRequest) (domain.SalesImportResponse, error) {
	req.BranchID = strings.TrimSpace(req.BranchID)
	req.Platform = domain.ParsePlatform(string(req.Platform))
	if req.Date.IsZero() {
		req.Date = s.Today()
	}

	verr := &inventory.ValidationError{}
	if req.BranchID == "" || req.BranchID == domain.FridgeBranchID {
		verr.Field("branch_id", "a branch is required")
	}
	if !req.Platform.Valid() {
		verr.Field("platform", fmt.Sprintf("unknown platform %q", req.Platform))
	}
	if strings.TrimSpace(req.Text) == "" {
		verr.Field("text", "statement text is required")
	}
	if err := verr.Err(); err != nil {
		return domain.SalesImportResponse{}, err
	}

	skus, err := s.repo.ListSKUs(ctx)
	if err != nil {
		return domain.SalesImportResponse{}, fmt.Errorf("list skus: %w", err)
	}
	menuItems, err := s.repo.ListMenuItems(ctx)
	if err != nil {
		return domain.SalesImportResponse{}, fmt.Errorf("list menu items: %w", err)
	}

	res, err := s.importer.Import(ctx, salesimport.Batch{
		BranchID: req.BranchID,
		Date:     req.Date,
		Platform: req.Platform,
		Text:     req.Text,
		Now:      s.now(),
	}, salesimport.Catalogue{SKUs: skus, MenuItems: menuItems, PlateSizes: s.plateSizes})
	if err != nil {
		return domain.SalesImportResponse{}, err
	}

	if len(res.Records) > 0 {
		if err := s.repo.AppendSalesRecords(ctx, res.Records); err != nil {
			return domain.SalesImportResponse{}, err
		}
	}

	pieces := 0
	for _, record := range res.Records {
		pieces += record.Quantity
	}
	s.logAudit(ctx, req.BranchID, "sales_import", "sales_records", req.Date.String(), fmt.Sprintf("platform=%s,parser=%s,records=%d,pieces=%d,warnings=%d", req.Platform, res.Parser, len(res.Records), pieces, len(res.Warnings)))
	return res, nil
}
