package inventory

import "github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"

// PlateSizes maps a category to the number of pieces served as one plate.
type PlateSizes map[domain.Category]int

// DefaultPlateSizes is the kitchen's standard plate: 8 steamed, 6 kurkure
// and 2 rolls.
func DefaultPlateSizes() PlateSizes {
	return PlateSizes{
		domain.CategorySteam:   8,
		domain.CategoryKurkure: 6,
		domain.CategoryRoll:    2,
	}
}

// PlateSizeFor falls back to the quantity of the first recipe ingredient of
// the first menu item that is built on the SKU, or 0 when none is.
func (p PlateSizes) PlateSizeFor(sku domain.SKU, menuItems []domain.MenuItem) int {
	if size, ok := p[sku.Category]; ok && size > 0 {
		return size
	}
	for _, item := range menuItems {
		if len(item.Ingredients) == 0 || item.Ingredients[0].SKUID != sku.ID {
			continue
		}
		size := int(item.Ingredients[0].Quantity.IntPart())
		if size > 0 {
			return size
		}
	}
	return 0
}
