package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryos/backend/internal/core"
)

var t0 = time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

func TestEstimateLotUsesCategoryTable(t *testing.T) {
	cases := []struct {
		category core.ItemCategory
		days     int
		conf     float64
	}{
		{core.CategoryProtein, 3, 0.70},
		{core.CategoryProduce, 7, 0.65},
		{core.CategoryDairy, 10, 0.70},
		{core.CategoryFrozen, 120, 0.60},
		{core.CategoryGrain, 180, 0.55},
		{core.CategorySnack, 90, 0.55},
		{core.CategoryBeverage, 30, 0.60},
		{core.CategoryCondiment, 180, 0.50},
		{core.CategoryHousehold, 365, 0.45},
		{core.CategoryOther, 30, 0.50},
	}
	for _, tc := range cases {
		est := EstimateLot(tc.category, nil, t0)
		assert.Equal(t, t0.AddDate(0, 0, tc.days), est.ExpiresAt, "category %s", tc.category)
		assert.Equal(t, tc.conf, est.Confidence, "category %s", tc.category)
		assert.Equal(t, core.ExpiryEstimated, est.Source)
		assert.Equal(t, t0, est.EstimatedAt)
	}
}

func TestEstimateLotAnchorsOnPurchaseDate(t *testing.T) {
	purchased := t0.AddDate(0, 0, -4)
	est := EstimateLot(core.CategoryProduce, &purchased, t0)
	require.Equal(t, purchased.AddDate(0, 0, 7), est.ExpiresAt)
	assert.Equal(t, t0, est.EstimatedAt)
}

func TestEstimateLotUnknownCategoryFallsBack(t *testing.T) {
	est := EstimateLot(core.ItemCategory("mystery"), nil, t0)
	assert.Equal(t, t0.AddDate(0, 0, 30), est.ExpiresAt)
	assert.Equal(t, 0.50, est.Confidence)
}

func TestDaysUntilRoundsUp(t *testing.T) {
	assert.Equal(t, 1, DaysUntil(t0.Add(2*time.Hour), t0))
	assert.Equal(t, 2, DaysUntil(t0.Add(36*time.Hour), t0))
	assert.Equal(t, 0, DaysUntil(t0.Add(-2*time.Hour), t0))
	assert.Equal(t, -1, DaysUntil(t0.Add(-26*time.Hour), t0))
	assert.Equal(t, 7, DaysUntil(t0.AddDate(0, 0, 7), t0))
}

func TestRiskBands(t *testing.T) {
	assert.Equal(t, core.RiskCritical, Risk(-3))
	assert.Equal(t, core.RiskCritical, Risk(2))
	assert.Equal(t, core.RiskHigh, Risk(3))
	assert.Equal(t, core.RiskHigh, Risk(5))
	assert.Equal(t, core.RiskMedium, Risk(6))
	assert.Equal(t, core.RiskMedium, Risk(10))
	assert.Equal(t, core.RiskLow, Risk(11))
}

func TestRiskWeights(t *testing.T) {
	assert.Equal(t, 1.0, RiskWeight(core.RiskCritical))
	assert.Equal(t, 0.6, RiskWeight(core.RiskHigh))
	assert.Equal(t, 0.3, RiskWeight(core.RiskMedium))
	assert.Equal(t, 0.1, RiskWeight(core.RiskLow))
}
