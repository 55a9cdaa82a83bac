// Package expiry estimates lot shelf life from fixed category tables and
// ranks lots by how soon they expire.
package expiry

import (
	"math"
	"time"

	"github.com/pantryos/backend/internal/core"
)

// Shelf-life tables. Days from purchase (or entry) to estimated expiry,
// and the confidence attached to that estimate.
var shelfDays = map[core.ItemCategory]int{
	core.CategoryProtein:   3,
	core.CategoryProduce:   7,
	core.CategoryDairy:     10,
	core.CategoryFrozen:    120,
	core.CategoryGrain:     180,
	core.CategorySnack:     90,
	core.CategoryBeverage:  30,
	core.CategoryCondiment: 180,
	core.CategoryHousehold: 365,
	core.CategoryOther:     30,
}

var confidence = map[core.ItemCategory]float64{
	core.CategoryProtein:   0.70,
	core.CategoryProduce:   0.65,
	core.CategoryDairy:     0.70,
	core.CategoryFrozen:    0.60,
	core.CategoryGrain:     0.55,
	core.CategorySnack:     0.55,
	core.CategoryBeverage:  0.60,
	core.CategoryCondiment: 0.50,
	core.CategoryHousehold: 0.45,
	core.CategoryOther:     0.50,
}

// Estimate is the computed expiry metadata for a new lot.
type Estimate struct {
	ExpiresAt   time.Time
	EstimatedAt time.Time
	Source      core.ExpirySource
	Confidence  float64
}

// EstimateLot derives an expiry estimate for a lot of the given category.
// The purchase date anchors the estimate when known; otherwise now does.
func EstimateLot(category core.ItemCategory, purchasedAt *time.Time, now time.Time) Estimate {
	days, ok := shelfDays[category]
	if !ok {
		days = shelfDays[core.CategoryOther]
	}
	anchor := now
	if purchasedAt != nil {
		anchor = *purchasedAt
	}
	conf, ok := confidence[category]
	if !ok {
		conf = confidence[core.CategoryOther]
	}
	return Estimate{
		ExpiresAt:   anchor.AddDate(0, 0, days),
		EstimatedAt: now,
		Source:      core.ExpiryEstimated,
		Confidence:  conf,
	}
}

// DaysUntil is the whole number of days until expiry, rounded up. A lot
// expiring later today reports 1; one that expired yesterday reports a
// negative count.
func DaysUntil(expiresAt, asOf time.Time) int {
	return int(math.Ceil(expiresAt.Sub(asOf).Hours() / 24))
}

// Risk buckets a days-until-expiry count.
func Risk(days int) core.RiskLevel {
	switch {
	case days <= 2:
		return core.RiskCritical
	case days <= 5:
		return core.RiskHigh
	case days <= 10:
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}

// RiskWeight is the penalty weight used by the pantry health score.
func RiskWeight(level core.RiskLevel) float64 {
	switch level {
	case core.RiskCritical:
		return 1
	case core.RiskHigh:
		return 0.6
	case core.RiskMedium:
		return 0.3
	default:
		return 0.1
	}
}
