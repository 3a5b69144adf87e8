// Package forecast suggests how many packets of each SKU to order so that
// stock lasts until the next delivery plus a safety cover.
package forecast

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/calendar"
	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

const (
	ShortWindowDays = 7
	LongWindowDays  = 90
	CoverageDays    = 3

	// TopSellerShare is the 7-day share, in percent, above which a SKU gets
	// the larger safety buffer.
	TopSellerShare = 10
)

var (
	topSellerBuffer = decimal.RequireFromString("1.5")
	defaultBuffer   = decimal.RequireFromString("1.2")
)

type Input struct {
	Today           calendar.Date
	ArrivalDate     calendar.Date
	Transactions    []domain.Transaction
	SKUs            []domain.SKU
	StorageUnits    []domain.StorageUnit
	LitresPerPacket decimal.Decimal
	AllocateSlack   bool
}

// Compute is deterministic for a given input; "today" is never read from the
// clock here.
func Compute(in Input) domain.OrderSuggestionReport {
	shortFrom := in.Today.AddDays(-ShortWindowDays)
	longFrom := in.Today.AddDays(-LongWindowDays)

	consumed7 := make(map[string]int)
	consumed90 := make(map[string]int)
	for _, txn := range in.Transactions {
		if txn.Type != domain.TransactionCheckOut && txn.Type != domain.TransactionWaste {
			continue
		}
		if txn.Date.Between(shortFrom, in.Today) {
			consumed7[txn.SKUID] += txn.QuantityPieces
		}
		if txn.Date.Between(longFrom, in.Today) {
			consumed90[txn.SKUID] += txn.QuantityPieces
		}
	}

	candidates := make([]domain.SKU, 0, len(in.SKUs))
	total7 := 0
	for _, sku := range in.SKUs {
		if sku.Category == domain.CategoryConsumables {
			continue
		}
		candidates = append(candidates, sku)
		total7 += consumed7[sku.ID]
	}

	days := max(0, in.Today.DaysUntil(in.ArrivalDate))
	report := domain.OrderSuggestionReport{
		Today:         in.Today,
		ArrivalDate:   in.ArrivalDate,
		DaysToArrival: days,
		Rows:          make([]domain.OrderSuggestionRow, 0, len(candidates)),
	}

	for _, sku := range candidates {
		c7 := consumed7[sku.ID]
		c90 := consumed90[sku.ID]
		perPacket := max(1, sku.PiecesPerPacket)

		share := 0.0
		if total7 > 0 {
			share = math.Round(float64(c7) / float64(total7) * 100)
		}
		topSeller := share > TopSellerShare

		avgPackets := ceilDiv(c7, ShortWindowDays*perPacket)
		burn := ceilDiv(c7*days, ShortWindowDays*perPacket)

		buffer := defaultBuffer
		if topSeller {
			buffer = topSellerBuffer
		}
		raw := decimal.NewFromInt(int64(avgPackets * CoverageDays)).Mul(buffer).Add(decimal.NewFromInt(int64(burn)))
		suggest := floorSuggestion(int(raw.Ceil().IntPart()), share)

		report.Rows = append(report.Rows, domain.OrderSuggestionRow{
			SKUID:           sku.ID,
			SKUName:         sku.Name,
			Category:        sku.Category,
			PiecesPerPacket: sku.PiecesPerPacket,
			Consumed7d:      c7,
			Consumed90d:     c90,
			DailyAvg7d:      round2(float64(c7) / ShortWindowDays),
			DailyAvg90d:     round2(float64(c90) / LongWindowDays),
			SharePercent:    share,
			IsTopSeller:     topSeller,
			Trend:           classifyTrend(c7, c90),
			DailyAvgPackets: avgPackets,
			ProjectedBurn:   burn,
			SuggestPackets:  suggest,
		})
		report.TotalPackets += suggest
	}

	rank := make(map[string]int, len(candidates))
	for _, sku := range candidates {
		rank[sku.ID] = sku.Order
	}
	slices.SortStableFunc(report.Rows, func(a, b domain.OrderSuggestionRow) int {
		if a.SharePercent != b.SharePercent {
			if a.SharePercent > b.SharePercent {
				return -1
			}
			return 1
		}
		if rank[a.SKUID] != rank[b.SKUID] {
			return rank[a.SKUID] - rank[b.SKUID]
		}
		if a.SKUID < b.SKUID {
			return -1
		}
		if a.SKUID > b.SKUID {
			return 1
		}
		return 0
	})

	applyCapacity(&report, in.StorageUnits, in.LitresPerPacket, in.AllocateSlack)
	return report
}

// floorSuggestion never lets an actively selling SKU drop to zero packets.
func floorSuggestion(packets int, share float64) int {
	if packets == 0 && share > 1 {
		return 1
	}
	return packets
}

// classifyTrend compares the 7-day and 90-day daily averages in integer
// arithmetic: up above +15%, down below -15%.
func classifyTrend(c7 int, c90 int) domain.Trend {
	short := int64(c7) * LongWindowDays * 100
	long := int64(c90) * ShortWindowDays
	switch {
	case short > long*115:
		return domain.TrendUp
	case short < long*85:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// CapacityPackets converts the active deep-freezer volume into packets. The
// second result is false when there is no bound.
func CapacityPackets(units []domain.StorageUnit, litresPerPacket decimal.Decimal) (int, bool) {
	if !litresPerPacket.IsPositive() {
		return 0, false
	}
	litres := decimal.Zero
	found := false
	for _, unit := range units {
		if !unit.IsActive || unit.Type != domain.StorageDeepFreezer {
			continue
		}
		litres = litres.Add(unit.CapacityLitres)
		found = true
	}
	if !found {
		return 0, false
	}
	return int(litres.Div(litresPerPacket).Floor().IntPart()), true
}

func applyCapacity(report *domain.OrderSuggestionReport, units []domain.StorageUnit, litresPerPacket decimal.Decimal, allocate bool) {
	capacity, bounded := CapacityPackets(units, litresPerPacket)
	report.CapacityPackets = capacity
	report.CapacityBounded = bounded
	if !bounded {
		return
	}

	if report.TotalPackets > capacity {
		report.Warning = &domain.CapacityWarning{
			SuggestedPackets: report.TotalPackets,
			CapacityPackets:  capacity,
			Message: fmt.Sprintf(
				"suggested %d packets exceed freezer capacity of %d packets by %d",
				report.TotalPackets, capacity, report.TotalPackets-capacity,
			),
		}
		return
	}
	if report.TotalPackets == capacity || len(report.Rows) == 0 {
		return
	}

	report.SlackPackets = capacity - report.TotalPackets
	report.SlackTargetSKUID = report.Rows[0].SKUID
	if !allocate {
		return
	}
	report.Rows[0].SuggestPackets += report.SlackPackets
	report.TotalPackets += report.SlackPackets
	report.SlackAllocated = true
}

func ceilDiv(n int, d int) int {
	if n <= 0 || d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
