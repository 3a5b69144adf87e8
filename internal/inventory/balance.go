// Package inventory holds the pure derivations over the stock ledger and order
// history: balances, checkout limits, sales attribution and variance.
// Nothing here performs I/O or reads the clock.
package inventory

import (
	"slices"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

// InScope reports whether a transaction contributes to the given scope. The
// FRIDGE scope sees every movement because checkouts and returns are recorded
// against the branch that took the stock.
func InScope(scope string, txn domain.Transaction) bool {
	if scope == domain.FridgeBranchID {
		return true
	}
	return txn.BranchID == scope
}

// ComputeBalances folds the ledger into per-SKU in/out totals for one scope.
// Every listed SKU gets an entry. Negative balances are kept as is.
func ComputeBalances(scope string, txns []domain.Transaction, skus []domain.SKU) map[string]domain.StockBalance {
	balances := make(map[string]domain.StockBalance, len(skus))
	for _, sku := range skus {
		balances[sku.ID] = domain.StockBalance{SKUID: sku.ID}
	}

	for _, txn := range txns {
		if !InScope(scope, txn) {
			continue
		}
		in, out := classify(txn)
		if in == 0 && out == 0 {
			continue
		}
		entry := balances[txn.SKUID]
		entry.SKUID = txn.SKUID
		entry.In += in
		entry.Out += out
		balances[txn.SKUID] = entry
	}

	for id, entry := range balances {
		entry.Balance = entry.In - entry.Out
		balances[id] = entry
	}
	return balances
}

func classify(txn domain.Transaction) (in int, out int) {
	qty := txn.QuantityPieces
	switch txn.Type {
	case domain.TransactionCheckIn:
		return qty, 0
	case domain.TransactionCheckOut:
		return 0, qty
	case domain.TransactionRestock:
		// Only central storage is restocked or adjusted directly.
		if txn.BranchID == domain.FridgeBranchID {
			return qty, 0
		}
	case domain.TransactionAdjustment:
		if txn.BranchID != domain.FridgeBranchID {
			return 0, 0
		}
		if qty >= 0 {
			return qty, 0
		}
		return 0, -qty
	case domain.TransactionWaste:
		// Branch waste already left central storage through its checkout.
		if txn.BranchID == domain.FridgeBranchID {
			return 0, qty
		}
	}
	return 0, 0
}

// SortBalances orders balances by the SKU display rank, unknown SKUs last.
func SortBalances(balances map[string]domain.StockBalance, skus []domain.SKU) []domain.StockBalance {
	rank := make(map[string]int, len(skus))
	for _, sku := range skus {
		rank[sku.ID] = sku.Order
	}

	rows := make([]domain.StockBalance, 0, len(balances))
	for _, entry := range balances {
		rows = append(rows, entry)
	}
	slices.SortFunc(rows, func(a, b domain.StockBalance) int {
		ra, okA := rank[a.SKUID]
		rb, okB := rank[b.SKUID]
		if okA != okB {
			if okA {
				return -1
			}
			return 1
		}
		if ra != rb {
			return ra - rb
		}
		return cmpString(a.SKUID, b.SKUID)
	})
	return rows
}

func cmpString(a string, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
