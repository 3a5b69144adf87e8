package inventory

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

var half = decimal.NewFromFloat(0.5)

// ComputeAttribution maps order lines onto raw SKU consumption. Each line is
// resolved by exactly one of: its consumption snapshot, its legacy plate, the
// live menu recipe for its variant. Lines with none of these are reported as
// gaps and contribute nothing. Cancelled orders are skipped.
func ComputeAttribution(orders []domain.Order, menuItems []domain.MenuItem) domain.AttributionResult {
	menu := make(map[string]domain.MenuItem, len(menuItems))
	for _, item := range menuItems {
		menu[item.ID] = item
	}

	billed := make(map[string]decimal.Decimal)
	sales := make(map[salesKey]*domain.ItemSales)
	gaps := make([]domain.AttributionGap, 0)
	count := 0

	for _, order := range orders {
		if order.Cancelled() {
			continue
		}
		count++

		for _, line := range order.Items {
			if line.Quantity <= 0 {
				continue
			}
			variant := normalizeVariant(line.Variant)
			key := salesKey{menuItemID: line.MenuItemID, name: line.Name, variant: variant}
			if line.MenuItemID != "" {
				key.name = ""
			}
			agg, ok := sales[key]
			if !ok {
				agg = &domain.ItemSales{MenuItemID: line.MenuItemID, Name: line.Name, Variant: variant}
				if recipe, found := menu[line.MenuItemID]; found && agg.Name == "" {
					agg.Name = recipe.Name
				}
				sales[key] = agg
			}
			agg.Quantity += line.Quantity

			consumed, resolved := lineConsumption(line, variant, menu)
			if !resolved {
				gaps = append(gaps, domain.AttributionGap{
					OrderID:    order.ID,
					MenuItemID: line.MenuItemID,
					Name:       line.Name,
					Variant:    variant,
					Quantity:   line.Quantity,
				})
				continue
			}
			for _, entry := range consumed {
				billed[entry.SKUID] = billed[entry.SKUID].Add(entry.Quantity)
			}
		}

		for _, custom := range order.CustomSKUItems {
			if custom.SKUID == "" {
				continue
			}
			billed[custom.SKUID] = billed[custom.SKUID].Add(custom.Quantity)
		}
	}

	itemSales := make([]domain.ItemSales, 0, len(sales))
	for _, agg := range sales {
		itemSales = append(itemSales, *agg)
	}
	slices.SortFunc(itemSales, func(a, b domain.ItemSales) int {
		if c := cmpString(a.MenuItemID, b.MenuItemID); c != 0 {
			return c
		}
		if c := cmpString(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpString(string(a.Variant), string(b.Variant))
	})
	slices.SortFunc(gaps, func(a, b domain.AttributionGap) int {
		if c := cmpString(a.OrderID, b.OrderID); c != 0 {
			return c
		}
		if c := cmpString(a.MenuItemID, b.MenuItemID); c != 0 {
			return c
		}
		return cmpString(a.Name, b.Name)
	})

	return domain.AttributionResult{
		Billed:     billed,
		ItemSales:  itemSales,
		Gaps:       gaps,
		OrderCount: count,
	}
}

type salesKey struct {
	menuItemID string
	name       string
	variant    domain.Variant
}

func normalizeVariant(v domain.Variant) domain.Variant {
	if v == domain.VariantHalf {
		return v
	}
	return domain.VariantFull
}

func lineConsumption(line domain.OrderItem, variant domain.Variant, menu map[string]domain.MenuItem) ([]domain.ConsumedEntry, bool) {
	override := line.Consumption
	switch override.Kind {
	case domain.ConsumptionSnapshotArray, domain.ConsumptionSnapshotSingle:
		if len(override.Entries) > 0 {
			// Snapshot quantities are already line totals.
			return override.Entries, true
		}
	case domain.ConsumptionLegacyPlate:
		if override.SKUID != "" {
			qty := override.PerUnitQty.Mul(decimal.NewFromInt(int64(line.Quantity)))
			return []domain.ConsumedEntry{{SKUID: override.SKUID, Quantity: qty}}, true
		}
	}

	item, ok := menu[line.MenuItemID]
	if !ok {
		return nil, false
	}
	multiplier := decimal.NewFromInt(int64(line.Quantity))
	recipe := RecipeFor(item, variant)
	entries := make([]domain.ConsumedEntry, 0, len(recipe))
	for _, ingredient := range recipe {
		entries = append(entries, domain.ConsumedEntry{
			SKUID:    ingredient.SKUID,
			Quantity: ingredient.Quantity.Mul(multiplier),
		})
	}
	return entries, true
}

// RecipeFor returns the per-plate ingredients for a variant. A half plate
// without an explicit recipe is the full recipe scaled per ingredient.
func RecipeFor(item domain.MenuItem, variant domain.Variant) []domain.Ingredient {
	if variant != domain.VariantHalf {
		return item.Ingredients
	}
	if len(item.HalfIngredients) > 0 {
		return item.HalfIngredients
	}
	scaled := make([]domain.Ingredient, 0, len(item.Ingredients))
	for _, ingredient := range item.Ingredients {
		scaled = append(scaled, domain.Ingredient{
			SKUID:    ingredient.SKUID,
			Quantity: ingredient.Quantity.Mul(half),
		})
	}
	return scaled
}

// AttributeSalesRecords totals platform sales records per SKU, skipping every
// platform that already has order-level detail in orders. The platforms that
// contributed are returned in sorted order.
func AttributeSalesRecords(records []domain.SalesRecord, orders []domain.Order) (map[string]decimal.Decimal, []domain.Platform) {
	detailed := make(map[domain.Platform]struct{})
	for _, order := range orders {
		if order.Cancelled() {
			continue
		}
		detailed[order.Platform] = struct{}{}
	}

	billed := make(map[string]decimal.Decimal)
	used := make(map[domain.Platform]struct{})
	for _, record := range records {
		if _, skip := detailed[record.Platform]; skip {
			continue
		}
		if record.SKUID == "" || record.Quantity == 0 {
			continue
		}
		billed[record.SKUID] = billed[record.SKUID].Add(decimal.NewFromInt(int64(record.Quantity)))
		used[record.Platform] = struct{}{}
	}

	platforms := make([]domain.Platform, 0, len(used))
	for platform := range used {
		platforms = append(platforms, platform)
	}
	slices.Sort(platforms)
	return billed, platforms
}

// MergeBilled sums per-SKU billed totals into a new map.
func MergeBilled(sources ...map[string]decimal.Decimal) map[string]decimal.Decimal {
	merged := make(map[string]decimal.Decimal)
	for _, source := range sources {
		for skuID, qty := range source {
			merged[skuID] = merged[skuID].Add(qty)
		}
	}
	return merged
}
