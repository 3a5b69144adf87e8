package inventory

import (
	"fmt"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

// ComputeCheckoutLimits totals the checkouts and returns of one branch on one
// trading day. Remaining is what may still be checked back in.
func ComputeCheckoutLimits(date calendar.Date, branchID string, txns []domain.Transaction) map[string]domain.CheckoutLimit {
	limits := make(map[string]domain.CheckoutLimit)
	for _, txn := range txns {
		if txn.Date != date || txn.BranchID != branchID {
			continue
		}
		entry := limits[txn.SKUID]
		entry.SKUID = txn.SKUID
		switch txn.Type {
		case domain.TransactionCheckOut:
			entry.Taken += txn.QuantityPieces
		case domain.TransactionCheckIn:
			entry.Returned += txn.QuantityPieces
		default:
			continue
		}
		limits[txn.SKUID] = entry
	}

	for id, entry := range limits {
		entry.Remaining = max(0, entry.Taken-entry.Returned)
		limits[id] = entry
	}
	return limits
}

// ValidateReturns rejects a batch of check-ins when, for any SKU, the returns
// already recorded plus the incoming ones exceed that day's checkouts.
func ValidateReturns(date calendar.Date, branchID string, existing []domain.Transaction, incoming []domain.Transaction, skuNames map[string]string) error {
	limits := ComputeCheckoutLimits(date, branchID, existing)

	requested := make(map[string]int)
	order := make([]string, 0, len(incoming))
	for _, txn := range incoming {
		if txn.Type != domain.TransactionCheckIn {
			continue
		}
		if _, seen := requested[txn.SKUID]; !seen {
			order = append(order, txn.SKUID)
		}
		requested[txn.SKUID] += txn.QuantityPieces
	}

	verr := &ValidationError{}
	for _, skuID := range order {
		limit := limits[skuID]
		total := limit.Returned + requested[skuID]
		if total <= limit.Taken {
			continue
		}
		name := skuNames[skuID]
		if name == "" {
			name = skuID
		}
		verr.Add(ValidationIssue{
			SKUID:    skuID,
			SKUName:  name,
			Field:    "quantity_pieces",
			Quantity: requested[skuID],
			Limit:    limit.Remaining,
			Message: fmt.Sprintf(
				"%s: cannot return %d pieces, only %d of %d taken on %s remain returnable",
				name, requested[skuID], limit.Remaining, limit.Taken, date,
			),
		})
	}
	return verr.Err()
}

// EstimateSold turns a day's net checkout into plates sold. Without a plate
// size the whole net quantity is reported as leftover pieces.
func EstimateSold(limit domain.CheckoutLimit, plateSize int) domain.SoldEstimate {
	net := max(0, limit.Taken-limit.Returned)
	estimate := domain.SoldEstimate{
		SKUID:       limit.SKUID,
		NetConsumed: net,
		PlateSize:   plateSize,
	}
	if plateSize <= 0 {
		estimate.LeftoverPieces = net
		return estimate
	}
	estimate.Plates = net / plateSize
	estimate.LeftoverPieces = net % plateSize
	return estimate
}

// ExpectedStock is the stocktake baseline. With ignoreTodaysCheckout the
// same-day checkouts are added back as if they had not left yet.
func ExpectedStock(balance int, takenToday int, ignoreTodaysCheckout bool) int {
	if ignoreTodaysCheckout {
		return balance + takenToday
	}
	return balance
}

// PreviousDayReturn finds the latest check-in of the calendar day before date
// for the SKU at the branch.
func PreviousDayReturn(date calendar.Date, branchID string, skuID string, txns []domain.Transaction) (domain.Transaction, bool) {
	previous := date.AddDays(-1)

	var best domain.Transaction
	found := false
	for _, txn := range txns {
		if txn.Type != domain.TransactionCheckIn || txn.Date != previous {
			continue
		}
		if txn.BranchID != branchID || txn.SKUID != skuID {
			continue
		}
		if !found || txn.Timestamp.After(best.Timestamp) ||
			(txn.Timestamp.Equal(best.Timestamp) && txn.ID > best.ID) {
			best = txn
			found = true
		}
	}
	return best, found
}

// PhysicalUsage is checkout minus return minus waste per SKU for a branch
// over an inclusive date range. An empty branch covers every real branch.
func PhysicalUsage(branchID string, from calendar.Date, to calendar.Date, txns []domain.Transaction) map[string]int {
	used := make(map[string]int)
	for _, txn := range txns {
		if txn.BranchID == domain.FridgeBranchID {
			continue
		}
		if branchID != "" && txn.BranchID != branchID {
			continue
		}
		if !txn.Date.Between(from, to) {
			continue
		}
		switch txn.Type {
		case domain.TransactionCheckOut:
			used[txn.SKUID] += txn.QuantityPieces
		case domain.TransactionCheckIn, domain.TransactionWaste:
			used[txn.SKUID] -= txn.QuantityPieces
		}
	}
	return used
}
