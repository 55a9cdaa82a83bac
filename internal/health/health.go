// Package health folds inventory, event, and check-in state into the
// five-part pantry health score.
package health

import (
	"time"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/expiry"
)

// Weights of the composite score.
const (
	weightStockBalance  = 0.25
	weightExpiryRisk    = 0.25
	weightWastePressure = 0.20
	weightPlanAdherence = 0.20
	weightDataQuality   = 0.10
)

// Window sizes and empty-state defaults.
const (
	wasteWindow     = 14 * 24 * time.Hour
	adherenceWindow = 7 * 24 * time.Hour

	emptyStockBalance  = 30.0
	emptyExpiryRisk    = 100.0
	emptyWastePressure = 70.0
	emptyAdherence     = 60.0

	coverageTarget     = 6   // distinct categories for full stock-balance credit
	highConfidenceBar  = 0.7 // expiry confidence counting as high for data quality
	oversupplyMultiple = 4   // qty above 4x threshold counts as oversupply
)

// Inputs is the snapshot the score is computed from.
type Inputs struct {
	HouseholdID string
	Lots        []core.InventoryLot
	Events      []core.InventoryEvent
	Checkins    []core.MealCheckin
	AsOf        time.Time
}

// Compute derives the composite pantry health score.
func Compute(in Inputs) core.PantryHealthScore {
	sub := core.HealthSubscores{
		StockBalance:  stockBalance(in.Lots),
		ExpiryRisk:    expiryRisk(in.Lots, in.AsOf),
		WastePressure: wastePressure(in.Events, in.AsOf),
		PlanAdherence: planAdherence(in.Checkins, in.AsOf),
		DataQuality:   dataQuality(in.Lots, in.Events),
	}
	composite := weightStockBalance*sub.StockBalance +
		weightExpiryRisk*sub.ExpiryRisk +
		weightWastePressure*sub.WastePressure +
		weightPlanAdherence*sub.PlanAdherence +
		weightDataQuality*sub.DataQuality

	return core.PantryHealthScore{
		HouseholdID: in.HouseholdID,
		AsOf:        in.AsOf,
		Score:       core.Round3(core.Clamp(composite, 0, 100)),
		Subscores:   sub,
	}
}

func activeLots(lots []core.InventoryLot) []core.InventoryLot {
	out := make([]core.InventoryLot, 0, len(lots))
	for _, l := range lots {
		if l.QuantityRemaining > 0 {
			out = append(out, l)
		}
	}
	return out
}

// stockBalance rewards category coverage and penalizes lots that are
// running low or piled up.
func stockBalance(lots []core.InventoryLot) float64 {
	active := activeLots(lots)
	if len(active) == 0 {
		return emptyStockBalance
	}

	categories := make(map[core.ItemCategory]bool)
	var low, over int
	for _, l := range active {
		categories[l.Category] = true
		threshold := core.LowStockThreshold(l.Unit)
		if l.QuantityRemaining < threshold {
			low++
		}
		if l.QuantityRemaining > oversupplyMultiple*threshold {
			over++
		}
	}

	coverage := float64(len(categories)) / coverageTarget
	if coverage > 1 {
		coverage = 1
	}
	n := float64(len(active))
	score := 100*coverage - 35*(float64(low)/n) - 15*(float64(over)/n)
	return core.Round3(core.Clamp(score, 0, 100))
}

// expiryRisk averages risk weights over lots with a known expiry.
func expiryRisk(lots []core.InventoryLot, asOf time.Time) float64 {
	var sum float64
	var n int
	for _, l := range activeLots(lots) {
		if l.ExpiresAt == nil {
			continue
		}
		days := expiry.DaysUntil(*l.ExpiresAt, asOf)
		sum += expiry.RiskWeight(expiry.Risk(days))
		n++
	}
	if n == 0 {
		return emptyExpiryRisk
	}
	score := 100 - (sum/float64(n))*100
	return core.Round3(core.Clamp(score, 0, 100))
}

// wastePressure compares wasted quantity against consumed over the last
// two weeks.
func wastePressure(events []core.InventoryEvent, asOf time.Time) float64 {
	cutoff := asOf.Add(-wasteWindow)
	var consumed, wasted float64
	for _, e := range events {
		if e.CreatedAt.Before(cutoff) || e.CreatedAt.After(asOf) {
			continue
		}
		switch e.EventType {
		case core.EventConsume:
			consumed += e.Quantity
		case core.EventWaste:
			wasted += e.Quantity
		}
	}
	denom := consumed + wasted
	if denom == 0 {
		return emptyWastePressure
	}
	return core.Round3(core.Clamp(100*(1-wasted/denom), 0, 100))
}

// planAdherence scores the last week of check-ins.
func planAdherence(checkins []core.MealCheckin, asOf time.Time) float64 {
	cutoff := asOf.Add(-adherenceWindow)
	var total, completed, needsAdjustment, skipped int
	for _, c := range checkins {
		if c.CreatedAt.Before(cutoff) || c.CreatedAt.After(asOf) {
			continue
		}
		total++
		switch c.Status {
		case core.CheckinCompleted:
			completed++
		case core.CheckinNeedsAdjustment:
			needsAdjustment++
		}
		if c.Outcome == core.OutcomeSkipped {
			skipped++
		}
	}
	if total == 0 {
		return emptyAdherence
	}
	n := float64(total)
	score := 100*(float64(completed)/n) - 20*(float64(needsAdjustment)/n) - 10*(float64(skipped)/n)
	return core.Round3(core.Clamp(score, 0, 100))
}

// dataQuality rewards expiry coverage and confident estimates, and
// penalizes ledgers dominated by manual corrections.
func dataQuality(lots []core.InventoryLot, events []core.InventoryEvent) float64 {
	active := activeLots(lots)

	var withExpiry, highConfidence int
	for _, l := range active {
		if l.ExpiresAt != nil {
			withExpiry++
		}
		if l.ExpiryConfidence != nil && *l.ExpiryConfidence >= highConfidenceBar {
			highConfidence++
		}
	}
	var expiryCoverage, confidenceCoverage float64
	if len(active) > 0 {
		expiryCoverage = float64(withExpiry) / float64(len(active))
		confidenceCoverage = float64(highConfidence) / float64(len(active))
	}

	var manual int
	for _, e := range events {
		if e.Source == core.SourceManual {
			manual++
		}
	}
	var manualRatio float64
	if len(events) > 0 {
		manualRatio = float64(manual) / float64(len(events))
	}

	score := 35 + 40*expiryCoverage + 25*confidenceCoverage - 15*manualRatio
	return core.Round3(core.Clamp(score, 0, 100))
}
