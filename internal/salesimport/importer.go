package salesimport

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/inventory"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/xid"
)

// Importer runs the primary parser and falls back to TextParser when it is
// missing or fails.
type Importer struct {
	primary  Parser
	fallback Parser
}

func NewImporter(primary Parser) *Importer {
	return &Importer{primary: primary, fallback: TextParser{}}
}

// Catalogue is what statement lines are resolved against. Lines are plate
// counts; they become pieces through the menu recipe or the SKU plate size.
type Catalogue struct {
	SKUs       []domain.SKU
	MenuItems  []domain.MenuItem
	PlateSizes inventory.PlateSizes
}

type Batch struct {
	BranchID string
	Date     calendar.Date
	Platform domain.Platform
	Text     string
	Now      time.Time
}

// Import parses the statement and returns one record per SKU with the
// quantity in pieces.
func (i *Importer) Import(ctx context.Context, batch Batch, catalogue Catalogue) (domain.SalesImportResponse, error) {
	var result Result
	parser := i.fallback
	if i.primary != nil {
		parsed, err := i.primary.Parse(ctx, batch.Platform, batch.Text, catalogue)
		if err != nil {
			log.Printf("[salesimport] WARN: %s parser failed, using text fallback: %v", i.primary.Name(), err)
		} else {
			result, parser = parsed, i.primary
		}
	}
	if parser == i.fallback {
		parsed, err := i.fallback.Parse(ctx, batch.Platform, batch.Text, catalogue)
		if err != nil {
			return domain.SalesImportResponse{}, fmt.Errorf("parse statement: %w", err)
		}
		result = parsed
	}

	menus := NewMenuMatcher(catalogue.MenuItems)
	menuByID := make(map[string]domain.MenuItem, len(catalogue.MenuItems))
	for _, item := range catalogue.MenuItems {
		menuByID[item.ID] = item
	}
	skus := NewMatcher(catalogue.SKUs)
	skuByID := make(map[string]domain.SKU, len(catalogue.SKUs))
	for _, sku := range catalogue.SKUs {
		skuByID[sku.ID] = sku
	}

	totals := make(map[string]decimal.Decimal)
	warnings := make([]string, 0, len(result.Skipped))
	for _, skipped := range result.Skipped {
		warnings = append(warnings, fmt.Sprintf("unreadable line: %q", skipped))
	}
	for _, line := range result.Lines {
		plates := decimal.NewFromInt(int64(line.Quantity))
		if menuID, ok := menus.Match(line.Name); ok {
			for _, ingredient := range inventory.RecipeFor(menuByID[menuID], domain.VariantFull) {
				totals[ingredient.SKUID] = totals[ingredient.SKUID].Add(ingredient.Quantity.Mul(plates))
			}
			continue
		}
		skuID, ok := skus.Match(line.Name)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no menu item or SKU matches %q (qty %d)", line.Name, line.Quantity))
			continue
		}
		size := catalogue.PlateSizes.PlateSizeFor(skuByID[skuID], catalogue.MenuItems)
		if size <= 0 {
			size = 1
		}
		totals[skuID] = totals[skuID].Add(plates.Mul(decimal.NewFromInt(int64(size))))
	}

	now := batch.Now.UTC()
	if batch.Now.IsZero() {
		now = time.Now().UTC()
	}
	records := make([]domain.SalesRecord, 0, len(totals))
	for skuID, qty := range totals {
		pieces := int(qty.Round(0).IntPart())
		if pieces == 0 {
			continue
		}
		records = append(records, domain.SalesRecord{
			ID:        xid.New("sale"),
			Date:      batch.Date,
			BranchID:  batch.BranchID,
			Platform:  batch.Platform,
			SKUID:     skuID,
			Quantity:  pieces,
			Source:    parser.Name(),
			Timestamp: now,
		})
	}
	slices.SortFunc(records, func(a, b domain.SalesRecord) int {
		return strings.Compare(a.SKUID, b.SKUID)
	})

	return domain.SalesImportResponse{
		Parser:   parser.Name(),
		Records:  records,
		Warnings: warnings,
	}, nil
}

// Matcher resolves free-text names to catalogue ids: exact id, then exact
// normalized name, then a unique partial match.
type Matcher struct {
	byID   map[string]string
	byName map[string]string
	names  []matchName
}

type matchName struct {
	key string
	id  string
}

func NewMatcher(skus []domain.SKU) *Matcher {
	m := newMatcher(len(skus))
	for _, sku := range skus {
		m.add(sku.ID, sku.Name)
	}
	return m
}

func NewMenuMatcher(items []domain.MenuItem) *Matcher {
	m := newMatcher(len(items))
	for _, item := range items {
		m.add(item.ID, item.Name)
	}
	return m
}

func newMatcher(size int) *Matcher {
	return &Matcher{
		byID:   make(map[string]string, size),
		byName: make(map[string]string, size),
		names:  make([]matchName, 0, size),
	}
}

func (m *Matcher) add(id string, name string) {
	m.byID[strings.ToLower(id)] = id
	key := normalize(name)
	if key == "" {
		return
	}
	m.byName[key] = id
	m.names = append(m.names, matchName{key: key, id: id})
}

func (m *Matcher) Match(name string) (string, bool) {
	if id, ok := m.byID[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id, true
	}
	key := normalize(name)
	if key == "" {
		return "", false
	}
	if id, ok := m.byName[key]; ok {
		return id, true
	}

	found := ""
	for _, candidate := range m.names {
		if !strings.Contains(key, candidate.key) && !strings.Contains(candidate.key, key) {
			continue
		}
		if found != "" && found != candidate.id {
			return "", false
		}
		found = candidate.id
	}
	return found, found != ""
}

func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
