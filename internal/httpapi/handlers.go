package httpapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken hands out the token mutating requests must echo in
// X-CSRF-Token.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

func (a *API) handleSKUs(w http.ResponseWriter, r *http.Request) {
	skus, err := a.service.ListSKUs(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skus": skus})
}

func (a *API) handleBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := a.service.ListBranches(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": branches})
}

func (a *API) handleMenuItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.ListMenuItems(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"menu_items": items})
}

func (a *API) handleStorageUnits(w http.ResponseWriter, r *http.Request) {
	units, err := a.service.ListStorageUnits(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"storage_units": units})
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	txns, err := a.service.ListTransactions(r.Context(), domain.TransactionFilter{
		BranchID: r.URL.Query().Get("branch_id"),
		SKUID:    r.URL.Query().Get("sku_id"),
		From:     from,
		To:       to,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (a *API) handleRecordTransactions(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordTransactionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.RecordTransactions(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleCarryForward(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.CarryForward(r.Context(), domain.CarryForwardRequest{
		BranchID: r.URL.Query().Get("branch_id"),
		SKUID:    r.URL.Query().Get("sku_id"),
		Date:     date,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleBalances(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.Balances(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleCheckoutSummary(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	summary, err := a.service.CheckoutSummary(r.Context(), r.URL.Query().Get("branch_id"), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleStocktake(w http.ResponseWriter, r *http.Request) {
	var req domain.StocktakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.Stocktake(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	orders, err := a.service.ListOrders(r.Context(), domain.OrderFilter{
		BranchID:         r.URL.Query().Get("branch_id"),
		From:             from,
		To:               to,
		IncludeCancelled: queryBool(r, "include_cancelled"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleRecordOrder(w http.ResponseWriter, r *http.Request) {
	var order domain.Order
	if err := decodeJSON(r, &order); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.service.RecordOrder(r.Context(), order)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleAttribution(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := a.service.Attribution(r.Context(), r.URL.Query().Get("branch_id"), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := a.service.Reconciliation(r.Context(), r.URL.Query().Get("branch_id"), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), "csv") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"reconciliation-%s-%s.csv\"", report.From, report.To))
		w.WriteHeader(http.StatusOK)
		if err := writeReconciliationCSV(w, report); err != nil {
			log.Printf("[httpapi] WARN: reconciliation csv write failed: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleOrderSuggestions(w http.ResponseWriter, r *http.Request) {
	arrival, err := queryDate(r, "arrival_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := a.service.OrderSuggestion(r.Context(), domain.OrderSuggestionRequest{
		ArrivalDate:   arrival,
		AllocateSlack: queryBool(r, "allocate_slack"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleListSalesRecords(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, err := a.service.ListSalesRecords(r.Context(), domain.SalesRecordFilter{
		BranchID: r.URL.Query().Get("branch_id"),
		From:     from,
		To:       to,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales_records": records})
}

func (a *API) handleImportSales(w http.ResponseWriter, r *http.Request) {
	// The model-backed parser is billed per call.
	if !a.importLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many import attempts"))
		return
	}

	var req domain.SalesImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.ImportSalesStatement(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := a.service.ListLedgerEntries(r.Context(), domain.LedgerEntryFilter{
		BranchID: r.URL.Query().Get("branch_id"),
		Status:   domain.LedgerStatus(r.URL.Query().Get("status")),
		From:     from,
		To:       to,
	}, parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ledger_entries": entries})
}

func (a *API) handleCreateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	var req domain.LedgerEntryCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := a.service.CreateLedgerEntry(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleReviewLedgerEntry(w http.ResponseWriter, r *http.Request) {
	var req domain.LedgerReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := a.service.ReviewLedgerEntry(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := a.service.ListAuditLogs(
		r.Context(),
		r.URL.Query().Get("branch_id"),
		r.URL.Query().Get("date"),
		parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (a *API) handleListStaff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"staff": a.auth.ListStaff(r.Context())})
}

func (a *API) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var req domain.StaffCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user, err := a.auth.CreateStaff(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func writeReconciliationCSV(w http.ResponseWriter, report domain.ReconciliationReport) error {
	out := csv.NewWriter(w)
	if err := out.Write([]string{"sku_id", "sku_name", "used", "sold", "diff", "variance_percent", "accuracy"}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := out.Write([]string{
			row.SKUID,
			row.SKUName,
			row.Used.String(),
			row.Sold.String(),
			row.Diff.String(),
			row.VariancePercent.StringFixed(2),
			row.Accuracy.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	totals := report.Totals
	if err := out.Write([]string{
		"TOTAL",
		"",
		totals.Used.String(),
		totals.Sold.String(),
		totals.Diff.String(),
		totals.VariancePercent.StringFixed(2),
		totals.Accuracy.StringFixed(2),
	}); err != nil {
		return err
	}
	out.Flush()
	return out.Error()
}
