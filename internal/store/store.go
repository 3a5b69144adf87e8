package store

import (
	"context"
	"errors"
	"time"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// AppendGuard sees the transactions already stored for a batch's branch and
// trading date while the store holds the write lock for that pair. A non-nil
// error aborts the append and is returned unchanged.
type AppendGuard func(existing []domain.Transaction) error

// Repository is the persistence boundary. Reads return snapshots the caller
// may keep; writes are atomic per call.
type Repository interface {
	ListSKUs(ctx context.Context) ([]domain.SKU, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)
	ListStorageUnits(ctx context.Context) ([]domain.StorageUnit, error)

	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	AppendTransactions(ctx context.Context, txns []domain.Transaction, guard AppendGuard) error

	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)

	ListSalesRecords(ctx context.Context, filter domain.SalesRecordFilter) ([]domain.SalesRecord, error)
	AppendSalesRecords(ctx context.Context, records []domain.SalesRecord) error

	CreateLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error)
	GetLedgerEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ReviewLedgerEntry(ctx context.Context, id string, status domain.LedgerStatus, reviewedBy string, note string, at time.Time) (*domain.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter, limit int) ([]domain.LedgerEntry, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, branchID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
