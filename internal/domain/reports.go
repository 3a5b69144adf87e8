package domain

import (
	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
)

type TransactionItem struct {
	SKUID          string `json:"sku_id"`
	QuantityPieces int    `json:"quantity_pieces"`
}

type RecordTransactionsRequest struct {
	BranchID string            `json:"branch_id"`
	Date     calendar.Date     `json:"date"`
	Type     TransactionType   `json:"type"`
	Items    []TransactionItem `json:"items"`
}

type RecordTransactionsResponse struct {
	BatchID      string        `json:"batch_id"`
	Transactions []Transaction `json:"transactions"`
}

type CarryForwardRequest struct {
	BranchID string        `json:"branch_id"`
	SKUID    string        `json:"sku_id"`
	Date     calendar.Date `json:"date"`
}

type CarryForwardResponse struct {
	Found       bool         `json:"found"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

type StockBalance struct {
	SKUID   string `json:"sku_id"`
	In      int    `json:"in"`
	Out     int    `json:"out"`
	Balance int    `json:"balance"`
}

type BalanceReport struct {
	Scope    string         `json:"scope"`
	Balances []StockBalance `json:"balances"`
}

type CheckoutLimit struct {
	SKUID     string `json:"sku_id"`
	Taken     int    `json:"taken"`
	Returned  int    `json:"returned"`
	Remaining int    `json:"remaining"`
}

type SoldEstimate struct {
	SKUID          string `json:"sku_id"`
	NetConsumed    int    `json:"net_consumed"`
	PlateSize      int    `json:"plate_size"`
	Plates         int    `json:"plates"`
	LeftoverPieces int    `json:"leftover_pieces"`
}

type CheckoutSummaryRow struct {
	SKUID          string `json:"sku_id"`
	SKUName        string `json:"sku_name"`
	Taken          int    `json:"taken"`
	Returned       int    `json:"returned"`
	Remaining      int    `json:"remaining"`
	NetConsumed    int    `json:"net_consumed"`
	PlateSize      int    `json:"plate_size"`
	Plates         int    `json:"plates"`
	LeftoverPieces int    `json:"leftover_pieces"`
}

type CheckoutSummary struct {
	BranchID string               `json:"branch_id"`
	Date     calendar.Date        `json:"date"`
	Rows     []CheckoutSummaryRow `json:"rows"`
}

type StocktakeCount struct {
	SKUID         string `json:"sku_id"`
	CountedPieces int    `json:"counted_pieces"`
}

type StocktakeRequest struct {
	Scope                string           `json:"scope"`
	Date                 calendar.Date    `json:"date"`
	IgnoreTodaysCheckout bool             `json:"ignore_todays_checkout"`
	Counts               []StocktakeCount `json:"counts"`
}

type StocktakeRow struct {
	SKUID          string `json:"sku_id"`
	SKUName        string `json:"sku_name"`
	SystemPieces   int    `json:"system_pieces"`
	AddedBack      int    `json:"added_back"`
	ExpectedPieces int    `json:"expected_pieces"`
	CountedPieces  int    `json:"counted_pieces"`
	Variance       int    `json:"variance"`
}

type StocktakeResponse struct {
	Scope                string         `json:"scope"`
	Date                 calendar.Date  `json:"date"`
	IgnoreTodaysCheckout bool           `json:"ignore_todays_checkout"`
	Rows                 []StocktakeRow `json:"rows"`
}

type ItemSales struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Variant    Variant `json:"variant"`
	Quantity   int     `json:"quantity"`
}

// AttributionGap is an order line that could not be mapped to any SKU.
type AttributionGap struct {
	OrderID    string  `json:"order_id"`
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Variant    Variant `json:"variant"`
	Quantity   int     `json:"quantity"`
}

type AttributionResult struct {
	Billed     map[string]decimal.Decimal `json:"billed"`
	ItemSales  []ItemSales                `json:"item_sales"`
	Gaps       []AttributionGap           `json:"gaps"`
	OrderCount int                        `json:"order_count"`
}

type AttributionReport struct {
	BranchID        string            `json:"branch_id"`
	From            calendar.Date     `json:"from"`
	To              calendar.Date     `json:"to"`
	RecordPlatforms []Platform        `json:"record_platforms,omitempty"`
	Result          AttributionResult `json:"result"`
}

type ReconciliationRow struct {
	SKUID           string          `json:"sku_id"`
	SKUName         string          `json:"sku_name"`
	Used            decimal.Decimal `json:"used"`
	Sold            decimal.Decimal `json:"sold"`
	Diff            decimal.Decimal `json:"diff"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
	Accuracy        decimal.Decimal `json:"accuracy"`
}

type ReconciliationTotals struct {
	Used            decimal.Decimal `json:"used"`
	Sold            decimal.Decimal `json:"sold"`
	Diff            decimal.Decimal `json:"diff"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
	Accuracy        decimal.Decimal `json:"accuracy"`
}

type MissingPlates struct {
	MenuItemID     string          `json:"menu_item_id"`
	Name           string          `json:"name"`
	Variant        Variant         `json:"variant"`
	PrimarySKUID   string          `json:"primary_sku_id"`
	PiecesPerPlate decimal.Decimal `json:"pieces_per_plate"`
	Plates         int             `json:"plates"`
}

// OperationalAlert flags a reconciliation figure that needs a manager's attention.
type OperationalAlert struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	SKUID    string `json:"sku_id,omitempty"`
	Message  string `json:"message"`
}

type ReconciliationReport struct {
	BranchID      string               `json:"branch_id"`
	From          calendar.Date        `json:"from"`
	To            calendar.Date        `json:"to"`
	Rows          []ReconciliationRow  `json:"rows"`
	Totals        ReconciliationTotals `json:"totals"`
	MissingPlates []MissingPlates      `json:"missing_plates"`
	Gaps          []AttributionGap     `json:"gaps"`
	Alerts        []OperationalAlert   `json:"alerts"`
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type OrderSuggestionRow struct {
	SKUID           string   `json:"sku_id"`
	SKUName         string   `json:"sku_name"`
	Category        Category `json:"category"`
	PiecesPerPacket int      `json:"pieces_per_packet"`
	Consumed7d      int      `json:"consumed_7d"`
	Consumed90d     int      `json:"consumed_90d"`
	DailyAvg7d      float64  `json:"daily_avg_7d"`
	DailyAvg90d     float64  `json:"daily_avg_90d"`
	SharePercent    float64  `json:"share_percent"`
	IsTopSeller     bool     `json:"is_top_seller"`
	Trend           Trend    `json:"trend"`
	DailyAvgPackets int      `json:"daily_avg_packets"`
	ProjectedBurn   int      `json:"projected_burn_packets"`
	SuggestPackets  int      `json:"suggest_packets"`
}

// CapacityWarning is soft: the suggestion is still returned.
type CapacityWarning struct {
	SuggestedPackets int    `json:"suggested_packets"`
	CapacityPackets  int    `json:"capacity_packets"`
	Message          string `json:"message"`
}

type OrderSuggestionReport struct {
	Today            calendar.Date        `json:"today"`
	ArrivalDate      calendar.Date        `json:"arrival_date"`
	DaysToArrival    int                  `json:"days_to_arrival"`
	Rows             []OrderSuggestionRow `json:"rows"`
	TotalPackets     int                  `json:"total_packets"`
	CapacityPackets  int                  `json:"capacity_packets"`
	CapacityBounded  bool                 `json:"capacity_bounded"`
	SlackPackets     int                  `json:"slack_packets"`
	SlackTargetSKUID string               `json:"slack_target_sku_id,omitempty"`
	SlackAllocated   bool                 `json:"slack_allocated"`
	Warning          *CapacityWarning     `json:"warning,omitempty"`
}

type OrderSuggestionRequest struct {
	ArrivalDate   calendar.Date `json:"arrival_date"`
	AllocateSlack bool          `json:"allocate_slack"`
}

type SalesImportRequest struct {
	BranchID string        `json:"branch_id"`
	Date     calendar.Date `json:"date"`
	Platform Platform      `json:"platform"`
	Text     string        `json:"text"`
}

type SalesImportResponse struct {
	Parser   string        `json:"parser"`
	Records  []SalesRecord `json:"records"`
	Warnings []string      `json:"warnings"`
}

type LedgerEntryCreateRequest struct {
	BranchID    string          `json:"branch_id"`
	Date        calendar.Date   `json:"date"`
	Type        LedgerEntryType `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type LedgerReviewRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}
