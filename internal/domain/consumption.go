package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ConsumptionKind string

const (
	ConsumptionNone           ConsumptionKind = "none"
	ConsumptionSnapshotArray  ConsumptionKind = "snapshot-array"
	ConsumptionSnapshotSingle ConsumptionKind = "snapshot-single"
	ConsumptionLegacyPlate    ConsumptionKind = "legacy-plate"
)

type ConsumedEntry struct {
	SKUID    string          `json:"sku_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ConsumptionOverride is the stock footprint recorded on an order line at sale
// time. Snapshot entries are line totals. A legacy plate carries a per-unit
// quantity that is multiplied by the line quantity.
type ConsumptionOverride struct {
	Kind       ConsumptionKind `json:"kind"`
	Entries    []ConsumedEntry `json:"entries,omitempty"`
	SKUID      string          `json:"sku_id,omitempty"`
	PerUnitQty decimal.Decimal `json:"per_unit_qty"`
}

func (c ConsumptionOverride) Present() bool {
	switch c.Kind {
	case ConsumptionSnapshotArray, ConsumptionSnapshotSingle:
		return len(c.Entries) > 0
	case ConsumptionLegacyPlate:
		return c.SKUID != ""
	}
	return false
}

// legacyEntry accepts both the snake_case and the older camelCase field names.
type legacyEntry struct {
	SKUID      string          `json:"sku_id"`
	SKUIDCamel string          `json:"skuId"`
	Quantity   decimal.Decimal `json:"quantity"`
}

func (e legacyEntry) skuID() string {
	if e.SKUID != "" {
		return strings.TrimSpace(e.SKUID)
	}
	return strings.TrimSpace(e.SKUIDCamel)
}

// ResolveConsumption maps the historical `consumed` and `plate` payload shapes
// onto a single override. `consumed` wins over `plate` when both are present.
func ResolveConsumption(consumed json.RawMessage, plate json.RawMessage) (ConsumptionOverride, error) {
	consumed = bytes.TrimSpace(consumed)
	if len(consumed) > 0 && !bytes.Equal(consumed, []byte("null")) {
		switch consumed[0] {
		case '[':
			var raw []legacyEntry
			if err := json.Unmarshal(consumed, &raw); err != nil {
				return ConsumptionOverride{}, fmt.Errorf("consumed: %w", err)
			}
			entries := make([]ConsumedEntry, 0, len(raw))
			for _, item := range raw {
				if item.skuID() == "" {
					continue
				}
				entries = append(entries, ConsumedEntry{SKUID: item.skuID(), Quantity: item.Quantity})
			}
			if len(entries) > 0 {
				return ConsumptionOverride{Kind: ConsumptionSnapshotArray, Entries: entries}, nil
			}
		case '{':
			var raw legacyEntry
			if err := json.Unmarshal(consumed, &raw); err != nil {
				return ConsumptionOverride{}, fmt.Errorf("consumed: %w", err)
			}
			if raw.skuID() != "" {
				return ConsumptionOverride{
					Kind:    ConsumptionSnapshotSingle,
					Entries: []ConsumedEntry{{SKUID: raw.skuID(), Quantity: raw.Quantity}},
				}, nil
			}
		default:
			return ConsumptionOverride{}, fmt.Errorf("consumed: expected array or object")
		}
	}

	plate = bytes.TrimSpace(plate)
	if len(plate) > 0 && !bytes.Equal(plate, []byte("null")) {
		var raw legacyEntry
		if err := json.Unmarshal(plate, &raw); err != nil {
			return ConsumptionOverride{}, fmt.Errorf("plate: %w", err)
		}
		if raw.skuID() != "" {
			return ConsumptionOverride{Kind: ConsumptionLegacyPlate, SKUID: raw.skuID(), PerUnitQty: raw.Quantity}, nil
		}
	}

	return ConsumptionOverride{Kind: ConsumptionNone}, nil
}

// UnmarshalJSON resolves legacy consumption fields once, at ingestion, so the
// attribution code only ever sees the tagged override.
func (i *OrderItem) UnmarshalJSON(data []byte) error {
	type plain OrderItem
	var raw struct {
		plain
		Consumed json.RawMessage `json:"consumed"`
		Plate    json.RawMessage `json:"plate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = OrderItem(raw.plain)

	legacy, err := ResolveConsumption(raw.Consumed, raw.Plate)
	if err != nil {
		return err
	}
	if legacy.Present() || i.Consumption.Kind == "" {
		i.Consumption = legacy
	}
	return nil
}
