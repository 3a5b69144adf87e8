package inventory

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

// AccuracyAlertThreshold is the accuracy percentage below which a variance is
// raised as an alert.
var AccuracyAlertThreshold = decimal.NewFromInt(90)

var hundred = decimal.NewFromInt(100)

// ComputeReconciliation compares physical usage with billed consumption per
// SKU. A positive diff means more was billed than physically left stock; a
// negative diff means more left stock than was billed.
func ComputeReconciliation(used map[string]int, sold map[string]decimal.Decimal) ([]domain.ReconciliationRow, domain.ReconciliationTotals) {
	ids := make([]string, 0, len(used)+len(sold))
	seen := make(map[string]struct{}, len(used)+len(sold))
	for id := range used {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for id := range sold {
		if _, ok := seen[id]; ok {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([]domain.ReconciliationRow, 0, len(ids))
	totalUsed := decimal.Zero
	totalSold := decimal.Zero
	for _, id := range ids {
		u := decimal.NewFromInt(int64(used[id]))
		s := sold[id]
		variance, accuracy := varianceOf(u, s)
		rows = append(rows, domain.ReconciliationRow{
			SKUID:           id,
			Used:            u,
			Sold:            s,
			Diff:            s.Sub(u),
			VariancePercent: variance,
			Accuracy:        accuracy,
		})
		totalUsed = totalUsed.Add(u)
		totalSold = totalSold.Add(s)
	}

	variance, accuracy := varianceOf(totalUsed, totalSold)
	totals := domain.ReconciliationTotals{
		Used:            totalUsed,
		Sold:            totalSold,
		Diff:            totalSold.Sub(totalUsed),
		VariancePercent: variance,
		Accuracy:        accuracy,
	}
	return rows, totals
}

// varianceOf degrades to a zero variance when nothing was used.
func varianceOf(used decimal.Decimal, sold decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !used.IsPositive() {
		return decimal.Zero, hundred
	}
	variance := sold.Sub(used).Div(used).Mul(hundred).Round(2)
	return variance, hundred.Sub(variance.Abs())
}

// EstimateMissingPlates translates a loss on each menu item's primary
// ingredient into whole plates. A surplus yields zero plates. Variants are
// those seen in itemSales, or FULL for items that did not sell.
func EstimateMissingPlates(menuItems []domain.MenuItem, rows []domain.ReconciliationRow, itemSales []domain.ItemSales) []domain.MissingPlates {
	diffs := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		diffs[row.SKUID] = row.Diff
	}
	soldVariants := make(map[string][]domain.Variant)
	for _, sale := range itemSales {
		if sale.MenuItemID == "" || slices.Contains(soldVariants[sale.MenuItemID], sale.Variant) {
			continue
		}
		soldVariants[sale.MenuItemID] = append(soldVariants[sale.MenuItemID], sale.Variant)
	}

	result := make([]domain.MissingPlates, 0, len(menuItems))
	for _, item := range menuItems {
		if len(item.Ingredients) == 0 {
			continue
		}
		primary := item.Ingredients[0].SKUID
		variants := soldVariants[item.ID]
		if len(variants) == 0 {
			variants = []domain.Variant{domain.VariantFull}
		}
		slices.Sort(variants)

		for _, variant := range variants {
			perPlate := piecesPerPlate(item, variant, primary)
			entry := domain.MissingPlates{
				MenuItemID:     item.ID,
				Name:           item.Name,
				Variant:        variant,
				PrimarySKUID:   primary,
				PiecesPerPlate: perPlate,
			}
			diff := diffs[primary]
			if diff.IsNegative() && perPlate.IsPositive() {
				entry.Plates = int(diff.Abs().Div(perPlate).Floor().IntPart())
			}
			result = append(result, entry)
		}
	}
	return result
}

func piecesPerPlate(item domain.MenuItem, variant domain.Variant, skuID string) decimal.Decimal {
	for _, ingredient := range RecipeFor(item, variant) {
		if ingredient.SKUID == skuID {
			return ingredient.Quantity
		}
	}
	return decimal.Zero
}

// VarianceAlerts raises stock_loss and over_billing per SKU below the accuracy
// threshold, and one attribution_gap alert when any order line was unmapped.
func VarianceAlerts(rows []domain.ReconciliationRow, gaps []domain.AttributionGap) []domain.OperationalAlert {
	alerts := make([]domain.OperationalAlert, 0)
	for _, row := range rows {
		if !row.Accuracy.LessThan(AccuracyAlertThreshold) {
			continue
		}
		name := row.SKUName
		if name == "" {
			name = row.SKUID
		}
		switch {
		case row.Diff.IsNegative():
			alerts = append(alerts, domain.OperationalAlert{
				Code:     "stock_loss",
				Severity: "high",
				SKUID:    row.SKUID,
				Message:  fmt.Sprintf("%s: %s pieces left stock without billing (accuracy %s%%)", name, row.Diff.Abs(), row.Accuracy),
			})
		case row.Diff.IsPositive():
			alerts = append(alerts, domain.OperationalAlert{
				Code:     "over_billing",
				Severity: "medium",
				SKUID:    row.SKUID,
				Message:  fmt.Sprintf("%s: %s pieces billed beyond recorded checkout (accuracy %s%%)", name, row.Diff, row.Accuracy),
			})
		}
	}
	if len(gaps) > 0 {
		alerts = append(alerts, domain.OperationalAlert{
			Code:     "attribution_gap",
			Severity: "medium",
			Message:  fmt.Sprintf("%d order lines matched no menu item and were not attributed", len(gaps)),
		})
	}
	return alerts
}
