package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	skus            []domain.SKU
	branches        []domain.Branch
	menuItems       []domain.MenuItem
	storageUnits    []domain.StorageUnit
	transactions    []domain.Transaction
	transactionIDs  map[string]struct{}
	ordersByID      map[string]domain.Order
	salesRecords    []domain.SalesRecord
	ledgerByID      map[string]domain.LedgerEntry
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD.
// If unset, dev defaults are used with a warning. The PostgreSQL store is used
// whenever DATABASE_URL is set, so these never reach production.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"staff", staffPwd, "staff"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func pieces(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func moneyPtr(v string) *decimal.Decimal {
	d := money(v)
	return &d
}

func NewSeeded() *Store {
	skus := []domain.SKU{
		{ID: "sku-veg-steam", Name: "Veg Steam Momo", Category: domain.CategorySteam, Dietary: domain.DietaryVeg, PiecesPerPacket: 50, Order: 1, CostPrice: moneyPtr("2.50")},
		{ID: "sku-chicken-steam", Name: "Chicken Steam Momo", Category: domain.CategorySteam, Dietary: domain.DietaryNonVeg, PiecesPerPacket: 50, Order: 2, CostPrice: moneyPtr("3.20")},
		{ID: "sku-paneer-kurkure", Name: "Paneer Kurkure Momo", Category: domain.CategoryKurkure, Dietary: domain.DietaryVeg, PiecesPerPacket: 36, Order: 3, CostPrice: moneyPtr("4.10")},
		{ID: "sku-chicken-roll", Name: "Chicken Spring Roll", Category: domain.CategoryRoll, Dietary: domain.DietaryNonVeg, PiecesPerPacket: 20, Order: 4},
		{ID: "sku-wheat-veg", Name: "Wheat Veg Momo", Category: domain.CategoryWheat, Dietary: domain.DietaryVeg, PiecesPerPacket: 50, Order: 5},
		{ID: "sku-fries", Name: "French Fries", Category: domain.CategoryFry, Dietary: domain.DietaryVeg, PiecesPerPacket: 250, Order: 6},
		{ID: "sku-dip-cup", Name: "Dip Cup", Category: domain.CategoryConsumables, Dietary: domain.DietaryNA, PiecesPerPacket: 100, Order: 7},
	}

	menuItems := []domain.MenuItem{
		{
			ID:          "menu-veg-steam",
			Name:        "Veg Steam Momo",
			Price:       money("100"),
			HalfPrice:   moneyPtr("60"),
			Ingredients: []domain.Ingredient{{SKUID: "sku-veg-steam", Quantity: pieces(8)}, {SKUID: "sku-dip-cup", Quantity: pieces(1)}},
		},
		{
			ID:              "menu-chicken-steam",
			Name:            "Chicken Steam Momo",
			Price:           money("130"),
			HalfPrice:       moneyPtr("80"),
			Ingredients:     []domain.Ingredient{{SKUID: "sku-chicken-steam", Quantity: pieces(8)}, {SKUID: "sku-dip-cup", Quantity: pieces(1)}},
			HalfIngredients: []domain.Ingredient{{SKUID: "sku-chicken-steam", Quantity: pieces(4)}, {SKUID: "sku-dip-cup", Quantity: pieces(1)}},
		},
		{
			ID:          "menu-paneer-kurkure",
			Name:        "Paneer Kurkure Momo",
			Price:       money("150"),
			Ingredients: []domain.Ingredient{{SKUID: "sku-paneer-kurkure", Quantity: pieces(6)}},
		},
		{
			ID:          "menu-chicken-roll",
			Name:        "Chicken Spring Roll",
			Price:       money("120"),
			Ingredients: []domain.Ingredient{{SKUID: "sku-chicken-roll", Quantity: pieces(2)}},
		},
		{
			ID:          "menu-wheat-veg",
			Name:        "Wheat Veg Momo",
			Price:       money("110"),
			Ingredients: []domain.Ingredient{{SKUID: "sku-wheat-veg", Quantity: pieces(8)}},
		},
		{
			ID:          "menu-fries",
			Name:        "Peri Peri Fries",
			Price:       money("90"),
			Ingredients: []domain.Ingredient{{SKUID: "sku-fries", Quantity: pieces(25)}},
		},
	}

	return &Store{
		skus: skus,
		branches: []domain.Branch{
			{ID: "branch-central", Name: "Central Market"},
			{ID: "branch-station", Name: "Station Road"},
		},
		menuItems: menuItems,
		storageUnits: []domain.StorageUnit{
			{ID: "freezer-1", Name: "Deep Freezer 1", CapacityLitres: money("300"), Type: domain.StorageDeepFreezer, IsActive: true},
			{ID: "freezer-2", Name: "Deep Freezer 2", CapacityLitres: money("200"), Type: domain.StorageDeepFreezer, IsActive: false},
			{ID: "chiller-1", Name: "Kitchen Chiller", CapacityLitres: money("150"), Type: domain.StorageFridge, IsActive: true},
		},
		transactions:    make([]domain.Transaction, 0, 256),
		transactionIDs:  make(map[string]struct{}),
		ordersByID:      make(map[string]domain.Order),
		salesRecords:    make([]domain.SalesRecord, 0, 64),
		ledgerByID:      make(map[string]domain.LedgerEntry),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListSKUs(_ context.Context) ([]domain.SKU, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skus := slices.Clone(s.skus)
	slices.SortFunc(skus, func(a, b domain.SKU) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return cmpString(a.ID, b.ID)
	})
	return skus, nil
}

func (s *Store) ListBranches(_ context.Context) ([]domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.branches), nil
}

func (s *Store) ListMenuItems(_ context.Context) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.MenuItem, 0, len(s.menuItems))
	for _, item := range s.menuItems {
		items = append(items, cloneMenuItem(item))
	}
	slices.SortFunc(items, func(a, b domain.MenuItem) int {
		return cmpString(a.ID, b.ID)
	})
	return items, nil
}

// SetMenuItems replaces the recipe book. Only used by tests and demo tooling.
func (s *Store) SetMenuItems(items []domain.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.menuItems = make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		s.menuItems = append(s.menuItems, cloneMenuItem(item))
	}
}

func (s *Store) ListStorageUnits(_ context.Context) ([]domain.StorageUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.storageUnits), nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, 64)
	for _, txn := range s.transactions {
		if filter.Matches(txn) {
			result = append(result, txn)
		}
	}
	slices.SortFunc(result, compareTransaction)
	return result, nil
}

// AppendTransactions stores the whole batch or nothing. A guarded batch must
// share one branch and trading date.
func (s *Store) AppendTransactions(_ context.Context, txns []domain.Transaction, guard store.AppendGuard) error {
	if len(txns) == 0 {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchIDs := make(map[string]struct{}, len(txns))
	for _, txn := range txns {
		if txn.ID == "" || txn.SKUID == "" || txn.BranchID == "" || txn.Date.IsZero() || !txn.Type.Valid() {
			return store.ErrInvalidInput
		}
		if _, exists := s.transactionIDs[txn.ID]; exists {
			return store.ErrConflict
		}
		if _, dup := batchIDs[txn.ID]; dup {
			return store.ErrConflict
		}
		batchIDs[txn.ID] = struct{}{}
	}

	if guard != nil {
		branchID, date := txns[0].BranchID, txns[0].Date
		for _, txn := range txns[1:] {
			if txn.BranchID != branchID || txn.Date != date {
				return store.ErrInvalidInput
			}
		}
		existing := make([]domain.Transaction, 0, 32)
		for _, txn := range s.transactions {
			if txn.BranchID == branchID && txn.Date == date {
				existing = append(existing, txn)
			}
		}
		slices.SortFunc(existing, compareTransaction)
		if err := guard(existing); err != nil {
			return err
		}
	}

	for _, txn := range txns {
		s.transactions = append(s.transactions, txn)
		s.transactionIDs[txn.ID] = struct{}{}
	}
	return nil
}

func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.ordersByID))
	for _, order := range s.ordersByID {
		if filter.Matches(order) {
			result = append(result, cloneOrder(order))
		}
	}
	slices.SortFunc(result, func(a, b domain.Order) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Compare(b.Timestamp)
		}
		return cmpString(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.BranchID == "" || order.Date.IsZero() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[order.ID]; exists {
		return nil, store.ErrConflict
	}
	s.ordersByID[order.ID] = cloneOrder(order)
	created := cloneOrder(order)
	return &created, nil
}

func (s *Store) ListSalesRecords(_ context.Context, filter domain.SalesRecordFilter) ([]domain.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SalesRecord, 0, 32)
	for _, record := range s.salesRecords {
		if filter.Matches(record) {
			result = append(result, record)
		}
	}
	slices.SortFunc(result, func(a, b domain.SalesRecord) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) AppendSalesRecords(_ context.Context, records []domain.SalesRecord) error {
	for _, record := range records {
		if record.ID == "" || record.SKUID == "" || record.BranchID == "" || record.Date.IsZero() {
			return store.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.salesRecords = append(s.salesRecords, records...)
	return nil
}

func (s *Store) CreateLedgerEntry(_ context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if entry.ID == "" || entry.BranchID == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ledgerByID[entry.ID]; exists {
		return nil, store.ErrConflict
	}
	if entry.Status == "" {
		entry.Status = domain.LedgerPending
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.ledgerByID[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) GetLedgerEntry(_ context.Context, id string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.ledgerByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := entry
	return &found, nil
}

func (s *Store) ReviewLedgerEntry(_ context.Context, id string, status domain.LedgerStatus, reviewedBy string, note string, at time.Time) (*domain.LedgerEntry, error) {
	if status != domain.LedgerApproved && status != domain.LedgerRejected {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.ledgerByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if entry.Status != domain.LedgerPending {
		return nil, store.ErrConflict
	}
	reviewedAt := at.UTC()
	entry.Status = status
	entry.ReviewedBy = reviewedBy
	entry.ReviewNote = note
	entry.ReviewedAt = &reviewedAt
	s.ledgerByID[id] = entry

	updated := entry
	return &updated, nil
}

func (s *Store) ListLedgerEntries(_ context.Context, filter domain.LedgerEntryFilter, limit int) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.LedgerEntry, 0, len(s.ledgerByID))
	for _, entry := range s.ledgerByID {
		if filter.Matches(entry) {
			result = append(result, entry)
		}
	}
	slices.SortFunc(result, func(a, b domain.LedgerEntry) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, branchID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if branchID != "" && entry.BranchID != branchID {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "staff"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func compareTransaction(a, b domain.Transaction) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Compare(b.Timestamp)
	}
	return cmpString(a.ID, b.ID)
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneOrder(src domain.Order) domain.Order {
	dup := src
	dup.Items = make([]domain.OrderItem, len(src.Items))
	for i, item := range src.Items {
		item.Consumption.Entries = slices.Clone(item.Consumption.Entries)
		dup.Items[i] = item
	}
	dup.CustomSKUItems = slices.Clone(src.CustomSKUItems)
	return dup
}

func cloneMenuItem(src domain.MenuItem) domain.MenuItem {
	dup := src
	dup.Ingredients = slices.Clone(src.Ingredients)
	dup.HalfIngredients = slices.Clone(src.HalfIngredients)
	return dup
}
