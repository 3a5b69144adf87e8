package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
)

// FridgeBranchID is the reserved scope for central deep-freezer storage.
const FridgeBranchID = "FRIDGE"

type Category string

const (
	CategorySteam       Category = "Steam"
	CategoryKurkure     Category = "Kurkure"
	CategoryWheat       Category = "Wheat"
	CategoryRoll        Category = "Roll"
	CategoryConsumables Category = "Consumables"
	CategoryFry         Category = "Fry"
	CategoryMomos       Category = "Momos"
)

type Dietary string

const (
	DietaryVeg    Dietary = "Veg"
	DietaryNonVeg Dietary = "NonVeg"
	DietaryNA     Dietary = "NA"
)

type SKU struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Category        Category         `json:"category"`
	Dietary         Dietary          `json:"dietary"`
	PiecesPerPacket int              `json:"pieces_per_packet"`
	Order           int              `json:"order"`
	CostPrice       *decimal.Decimal `json:"cost_price,omitempty"`
}

type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TransactionType string

const (
	TransactionCheckOut   TransactionType = "CHECK_OUT"
	TransactionCheckIn    TransactionType = "CHECK_IN"
	TransactionWaste      TransactionType = "WASTE"
	TransactionRestock    TransactionType = "RESTOCK"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionCheckOut, TransactionCheckIn, TransactionWaste, TransactionRestock, TransactionAdjustment:
		return true
	}
	return false
}

// Transaction is an immutable stock movement. QuantityPieces is signed only
// for ADJUSTMENT; every other type carries a magnitude.
type Transaction struct {
	ID             string          `json:"id"`
	BatchID        string          `json:"batch_id"`
	Date           calendar.Date   `json:"date"`
	Timestamp      time.Time       `json:"timestamp"`
	BranchID       string          `json:"branch_id"`
	SKUID          string          `json:"sku_id"`
	Type           TransactionType `json:"type"`
	QuantityPieces int             `json:"quantity_pieces"`
	UserName       string          `json:"user_name,omitempty"`
}

type TransactionFilter struct {
	BranchID string
	SKUID    string
	From     calendar.Date
	To       calendar.Date
}

func (f TransactionFilter) Matches(t Transaction) bool {
	if f.BranchID != "" && t.BranchID != f.BranchID {
		return false
	}
	if f.SKUID != "" && t.SKUID != f.SKUID {
		return false
	}
	return t.Date.Between(f.From, f.To)
}

type Platform string

const (
	PlatformPOS    Platform = "POS"
	PlatformZomato Platform = "ZOMATO"
	PlatformSwiggy Platform = "SWIGGY"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformPOS, PlatformZomato, PlatformSwiggy:
		return true
	}
	return false
}

func ParsePlatform(raw string) Platform {
	return Platform(strings.ToUpper(strings.TrimSpace(raw)))
}

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type Variant string

const (
	VariantFull Variant = "FULL"
	VariantHalf Variant = "HALF"
)

type Order struct {
	ID             string          `json:"id"`
	BranchID       string          `json:"branch_id"`
	Date           calendar.Date   `json:"date"`
	Timestamp      time.Time       `json:"timestamp"`
	Platform       Platform        `json:"platform"`
	Status         OrderStatus     `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Items          []OrderItem     `json:"items"`
	CustomSKUItems []CustomSKUItem `json:"custom_sku_items,omitempty"`
}

func (o Order) Cancelled() bool {
	return o.Status == OrderStatusCancelled
}

type OrderItem struct {
	MenuItemID  string              `json:"menu_item_id"`
	Name        string              `json:"name"`
	Quantity    int                 `json:"quantity"`
	Variant     Variant             `json:"variant"`
	Consumption ConsumptionOverride `json:"consumption"`
}

// CustomSKUItem is an ad-hoc raw SKU sale outside the menu, in pieces.
type CustomSKUItem struct {
	SKUID    string          `json:"sku_id"`
	Name     string          `json:"name,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
}

type OrderFilter struct {
	BranchID         string
	From             calendar.Date
	To               calendar.Date
	IncludeCancelled bool
}

func (f OrderFilter) Matches(o Order) bool {
	if f.BranchID != "" && o.BranchID != f.BranchID {
		return false
	}
	if !f.IncludeCancelled && o.Cancelled() {
		return false
	}
	return o.Date.Between(f.From, f.To)
}

type Ingredient struct {
	SKUID    string          `json:"sku_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type MenuItem struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	HalfPrice       *decimal.Decimal `json:"half_price,omitempty"`
	Ingredients     []Ingredient     `json:"ingredients"`
	HalfIngredients []Ingredient     `json:"half_ingredients,omitempty"`
}

// SalesRecord is a per-SKU platform sales count, in pieces, for platforms
// without order-level detail.
type SalesRecord struct {
	ID        string        `json:"id"`
	Date      calendar.Date `json:"date"`
	BranchID  string        `json:"branch_id"`
	Platform  Platform      `json:"platform"`
	SKUID     string        `json:"sku_id"`
	Quantity  int           `json:"quantity"`
	Source    string        `json:"source"`
	Timestamp time.Time     `json:"timestamp"`
}

type SalesRecordFilter struct {
	BranchID string
	From     calendar.Date
	To       calendar.Date
}

func (f SalesRecordFilter) Matches(r SalesRecord) bool {
	if f.BranchID != "" && r.BranchID != f.BranchID {
		return false
	}
	return r.Date.Between(f.From, f.To)
}

type StorageType string

const (
	StorageDeepFreezer StorageType = "DEEP_FREEZER"
	StorageFridge      StorageType = "FRIDGE"
)

type StorageUnit struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CapacityLitres decimal.Decimal `json:"capacity_litres"`
	Type           StorageType     `json:"type"`
	IsActive       bool            `json:"is_active"`
}

type LedgerEntryType string

const (
	LedgerIncome  LedgerEntryType = "INCOME"
	LedgerExpense LedgerEntryType = "EXPENSE"
)

type LedgerStatus string

const (
	LedgerPending  LedgerStatus = "PENDING"
	LedgerApproved LedgerStatus = "APPROVED"
	LedgerRejected LedgerStatus = "REJECTED"
)

type LedgerEntry struct {
	ID          string          `json:"id"`
	BranchID    string          `json:"branch_id"`
	Date        calendar.Date   `json:"date"`
	Type        LedgerEntryType `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Status      LedgerStatus    `json:"status"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	ReviewedBy  string          `json:"reviewed_by,omitempty"`
	ReviewNote  string          `json:"review_note,omitempty"`
	ReviewedAt  *time.Time      `json:"reviewed_at,omitempty"`
}

type LedgerEntryFilter struct {
	BranchID string
	Status   LedgerStatus
	From     calendar.Date
	To       calendar.Date
}

func (f LedgerEntryFilter) Matches(e LedgerEntry) bool {
	if f.BranchID != "" && e.BranchID != f.BranchID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return e.Date.Between(f.From, f.To)
}

type AuditLog struct {
	ID            string    `json:"id"`
	BranchID      string    `json:"branch_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
