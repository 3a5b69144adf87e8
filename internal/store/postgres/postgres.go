package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/store"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/xid"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates missing tables. It never alters existing ones.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) ListSKUs(ctx context.Context) ([]domain.SKU, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, dietary, pieces_per_packet, display_order, cost_price
		FROM skus
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skus := make([]domain.SKU, 0, 32)
	for rows.Next() {
		var sku domain.SKU
		var cost decimal.NullDecimal
		if err := rows.Scan(&sku.ID, &sku.Name, &sku.Category, &sku.Dietary, &sku.PiecesPerPacket, &sku.Order, &cost); err != nil {
			return nil, err
		}
		if cost.Valid {
			price := cost.Decimal
			sku.CostPrice = &price
		}
		skus = append(skus, sku)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return skus, nil
}

func (s *Store) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM branches ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]domain.Branch, 0, 8)
	for rows.Next() {
		var branch domain.Branch
		if err := rows.Scan(&branch.ID, &branch.Name); err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return branches, nil
}

func (s *Store) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, half_price, ingredients, half_ingredients
		FROM menu_items
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0, 32)
	for rows.Next() {
		var item domain.MenuItem
		var halfPrice decimal.NullDecimal
		var ingredients, halfIngredients []byte
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &halfPrice, &ingredients, &halfIngredients); err != nil {
			return nil, err
		}
		if halfPrice.Valid {
			price := halfPrice.Decimal
			item.HalfPrice = &price
		}
		if err := json.Unmarshal(ingredients, &item.Ingredients); err != nil {
			return nil, fmt.Errorf("menu item %s ingredients: %w", item.ID, err)
		}
		if err := json.Unmarshal(halfIngredients, &item.HalfIngredients); err != nil {
			return nil, fmt.Errorf("menu item %s half ingredients: %w", item.ID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, capacity_litres, type, is_active
		FROM storage_units
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]domain.StorageUnit, 0, 8)
	for rows.Next() {
		var unit domain.StorageUnit
		if err := rows.Scan(&unit.ID, &unit.Name, &unit.CapacityLitres, &unit.Type, &unit.IsActive); err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return units, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	return listTransactions(ctx, s.db, filter)
}

func listTransactions(ctx context.Context, q queryer, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	where := newConditions("deleted_at IS NULL")
	where.add("branch_id = $%d", filter.BranchID, filter.BranchID != "")
	where.add("sku_id = $%d", filter.SKUID, filter.SKUID != "")
	where.add("trading_date >= $%d", filter.From.String(), !filter.From.IsZero())
	where.add("trading_date <= $%d", filter.To.String(), !filter.To.IsZero())

	rows, err := q.QueryContext(ctx, `
		SELECT id, batch_id, trading_date, created_at, branch_id, sku_id, type, quantity_pieces, user_name
		FROM stock_transactions
		WHERE `+where.sql()+`
		ORDER BY trading_date, created_at, id
	`, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, 128)
	for rows.Next() {
		var txn domain.Transaction
		var tradingDate time.Time
		if err := rows.Scan(&txn.ID, &txn.BatchID, &tradingDate, &txn.Timestamp, &txn.BranchID, &txn.SKUID, &txn.Type, &txn.QuantityPieces, &txn.UserName); err != nil {
			return nil, err
		}
		txn.Date = calendar.FromTime(tradingDate)
		txn.Timestamp = txn.Timestamp.UTC()
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

// AppendTransactions inserts the batch in one transaction. With a guard it
// first takes a transaction-scoped advisory lock on the batch's branch and
// trading date, so guarded appends for the same pair run one at a time.
func (s *Store) AppendTransactions(ctx context.Context, txns []domain.Transaction, guard store.AppendGuard) error {
	if len(txns) == 0 {
		return store.ErrInvalidInput
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	if guard != nil {
		branchID, date := txns[0].BranchID, txns[0].Date
		for _, txn := range txns[1:] {
			if txn.BranchID != branchID || txn.Date != date {
				return store.ErrInvalidInput
			}
		}
		if _, err := pgTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "stock:"+branchID+"|"+date.String()); err != nil {
			return fmt.Errorf("lock branch day: %w", err)
		}
		existing, err := listTransactions(ctx, pgTx, domain.TransactionFilter{BranchID: branchID, From: date, To: date})
		if err != nil {
			return err
		}
		if err := guard(existing); err != nil {
			return err
		}
	}

	for _, txn := range txns {
		if txn.ID == "" || txn.SKUID == "" || txn.BranchID == "" || txn.Date.IsZero() || !txn.Type.Valid() {
			return store.ErrInvalidInput
		}
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO stock_transactions (
				id, batch_id, trading_date, created_at, branch_id, sku_id, type, quantity_pieces, user_name
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, txn.ID, txn.BatchID, txn.Date.String(), txn.Timestamp, txn.BranchID, txn.SKUID, string(txn.Type), txn.QuantityPieces, txn.UserName)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrConflict
			}
			return err
		}
	}

	return pgTx.Commit()
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	where := newConditions("true")
	where.add("branch_id = $%d", filter.BranchID, filter.BranchID != "")
	where.add("trading_date >= $%d", filter.From.String(), !filter.From.IsZero())
	where.add("trading_date <= $%d", filter.To.String(), !filter.To.IsZero())
	where.add("status <> $%d", string(domain.OrderStatusCancelled), !filter.IncludeCancelled)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch_id, trading_date, created_at, platform, status, total_amount, items, custom_sku_items
		FROM orders
		WHERE `+where.sql()+`
		ORDER BY trading_date, created_at, id
	`, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 64)
	for rows.Next() {
		var order domain.Order
		var tradingDate time.Time
		var items, custom []byte
		if err := rows.Scan(&order.ID, &order.BranchID, &tradingDate, &order.Timestamp, &order.Platform, &order.Status, &order.TotalAmount, &items, &custom); err != nil {
			return nil, err
		}
		order.Date = calendar.FromTime(tradingDate)
		order.Timestamp = order.Timestamp.UTC()
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("order %s items: %w", order.ID, err)
		}
		if err := json.Unmarshal(custom, &order.CustomSKUItems); err != nil {
			return nil, fmt.Errorf("order %s custom items: %w", order.ID, err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.BranchID == "" || order.Date.IsZero() {
		return nil, store.ErrInvalidInput
	}
	if order.Items == nil {
		order.Items = []domain.OrderItem{}
	}
	if order.CustomSKUItems == nil {
		order.CustomSKUItems = []domain.CustomSKUItem{}
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	custom, err := json.Marshal(order.CustomSKUItems)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, branch_id, trading_date, created_at, platform, status, total_amount, items, custom_sku_items)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, order.ID, order.BranchID, order.Date.String(), order.Timestamp, string(order.Platform), string(order.Status), order.TotalAmount, items, custom)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := order
	return &created, nil
}

func (s *Store) ListSalesRecords(ctx context.Context, filter domain.SalesRecordFilter) ([]domain.SalesRecord, error) {
	where := newConditions("true")
	where.add("branch_id = $%d", filter.BranchID, filter.BranchID != "")
	where.add("trading_date >= $%d", filter.From.String(), !filter.From.IsZero())
	where.add("trading_date <= $%d", filter.To.String(), !filter.To.IsZero())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trading_date, branch_id, platform, sku_id, quantity, source, created_at
		FROM sales_records
		WHERE `+where.sql()+`
		ORDER BY trading_date, id
	`, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.SalesRecord, 0, 32)
	for rows.Next() {
		var record domain.SalesRecord
		var tradingDate time.Time
		if err := rows.Scan(&record.ID, &tradingDate, &record.BranchID, &record.Platform, &record.SKUID, &record.Quantity, &record.Source, &record.Timestamp); err != nil {
			return nil, err
		}
		record.Date = calendar.FromTime(tradingDate)
		record.Timestamp = record.Timestamp.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) AppendSalesRecords(ctx context.Context, records []domain.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	for _, record := range records {
		if record.ID == "" || record.SKUID == "" || record.BranchID == "" || record.Date.IsZero() {
			return store.ErrInvalidInput
		}
		if record.Timestamp.IsZero() {
			record.Timestamp = time.Now().UTC()
		}
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO sales_records (id, trading_date, branch_id, platform, sku_id, quantity, source, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, record.ID, record.Date.String(), record.BranchID, string(record.Platform), record.SKUID, record.Quantity, record.Source, record.Timestamp)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrConflict
			}
			return err
		}
	}

	return pgTx.Commit()
}

const ledgerColumns = `id, branch_id, entry_date, type, category, amount, description, status, created_by, created_at, reviewed_by, review_note, reviewed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedgerEntry(row rowScanner) (domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var entryDate time.Time
	var reviewedBy, reviewNote sql.NullString
	var reviewedAt sql.NullTime
	if err := row.Scan(
		&entry.ID, &entry.BranchID, &entryDate, &entry.Type, &entry.Category, &entry.Amount, &entry.Description,
		&entry.Status, &entry.CreatedBy, &entry.CreatedAt, &reviewedBy, &reviewNote, &reviewedAt,
	); err != nil {
		return domain.LedgerEntry{}, err
	}
	entry.Date = calendar.FromTime(entryDate)
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.ReviewedBy = reviewedBy.String
	entry.ReviewNote = reviewNote.String
	if reviewedAt.Valid {
		at := reviewedAt.Time.UTC()
		entry.ReviewedAt = &at
	}
	return entry, nil
}

func (s *Store) CreateLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if entry.ID == "" || entry.BranchID == "" {
		return nil, store.ErrInvalidInput
	}
	if entry.Status == "" {
		entry.Status = domain.LedgerPending
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, branch_id, entry_date, type, category, amount, description, status, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, entry.ID, entry.BranchID, entry.Date.String(), string(entry.Type), entry.Category, entry.Amount, entry.Description, string(entry.Status), entry.CreatedBy, entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := entry
	return &created, nil
}

func (s *Store) GetLedgerEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	entry, err := scanLedgerEntry(s.db.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ReviewLedgerEntry only moves a PENDING entry; the status guard runs in the
// UPDATE so concurrent reviewers cannot both win.
func (s *Store) ReviewLedgerEntry(ctx context.Context, id string, status domain.LedgerStatus, reviewedBy string, note string, at time.Time) (*domain.LedgerEntry, error) {
	if status != domain.LedgerApproved && status != domain.LedgerRejected {
		return nil, store.ErrInvalidInput
	}

	entry, err := scanLedgerEntry(s.db.QueryRowContext(ctx, `
		UPDATE ledger_entries
		SET status = $2, reviewed_by = $3, review_note = $4, reviewed_at = $5
		WHERE id = $1 AND status = $6
		RETURNING `+ledgerColumns,
		id, string(status), reviewedBy, note, at.UTC(), string(domain.LedgerPending),
	))
	if err == nil {
		return &entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, getErr := s.GetLedgerEntry(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, store.ErrConflict
}

func (s *Store) ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter, limit int) ([]domain.LedgerEntry, error) {
	if limit < 1 {
		limit = 100
	}

	where := newConditions("true")
	where.add("branch_id = $%d", filter.BranchID, filter.BranchID != "")
	where.add("status = $%d", string(filter.Status), filter.Status != "")
	where.add("entry_date >= $%d", filter.From.String(), !filter.From.IsZero())
	where.add("entry_date <= $%d", filter.To.String(), !filter.To.IsZero())
	where.args = append(where.args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE `+where.sql()+`
		ORDER BY created_at DESC, id DESC
		LIMIT $`+fmt.Sprint(len(where.args)),
		where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, branch_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.BranchID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, branchID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1 = '' OR branch_id = $1)
			AND created_at >= $2
			AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`, branchID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.BranchID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "staff"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// conditions builds a WHERE clause with positional placeholders.
type conditions struct {
	clauses []string
	args    []any
}

func newConditions(base string) *conditions {
	return &conditions{clauses: []string{base}}
}

func (c *conditions) add(format string, arg any, enabled bool) {
	if !enabled {
		return
	}
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

func (c *conditions) sql() string {
	return strings.Join(c.clauses, " AND ")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
