package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestComputeRisingPriceTriggersAlert(t *testing.T) {
	points := []Point{
		{At: day(2026, 2, 8), UnitPrice: 3.20},
		{At: day(2026, 1, 25), UnitPrice: 2.40},
		{At: day(2026, 1, 12), UnitPrice: 2.30},
	}
	asOf := day(2026, 2, 9)

	got := Compute(points, asOf)
	require.NotNil(t, got.LastUnitPrice)
	require.NotNil(t, got.AvgUnitPrice30d)
	require.NotNil(t, got.MinUnitPrice90d)
	require.NotNil(t, got.PriceTrendPct)

	assert.Equal(t, 3.20, *got.LastUnitPrice)
	assert.Equal(t, 2.633, *got.AvgUnitPrice30d)
	assert.Equal(t, 2.30, *got.MinUnitPrice90d)
	assert.Greater(t, *got.PriceTrendPct, 15.0)
	assert.True(t, got.PriceAlert)
}

func TestComputeIsOrderInsensitive(t *testing.T) {
	forward := []Point{
		{At: day(2026, 1, 12), UnitPrice: 2.30},
		{At: day(2026, 1, 25), UnitPrice: 2.40},
		{At: day(2026, 2, 8), UnitPrice: 3.20},
	}
	backward := []Point{forward[2], forward[0], forward[1]}
	asOf := day(2026, 2, 9)

	a := Compute(forward, asOf)
	b := Compute(backward, asOf)
	assert.Equal(t, a, b)
}

func TestComputeStablePriceNoAlert(t *testing.T) {
	points := []Point{
		{At: day(2026, 2, 1), UnitPrice: 2.00},
		{At: day(2026, 1, 20), UnitPrice: 2.10},
		{At: day(2026, 1, 10), UnitPrice: 1.95},
	}
	got := Compute(points, day(2026, 2, 9))
	require.NotNil(t, got.PriceTrendPct)
	assert.Less(t, *got.PriceTrendPct, 15.0)
	assert.False(t, got.PriceAlert)
}

func TestComputeMinWindowAlert(t *testing.T) {
	// Trend is flat inside 30d but the last price sits 25% above the
	// 90-day minimum.
	points := []Point{
		{At: day(2026, 2, 8), UnitPrice: 2.50},
		{At: day(2026, 2, 1), UnitPrice: 2.50},
		{At: day(2025, 12, 1), UnitPrice: 1.90},
	}
	got := Compute(points, day(2026, 2, 9))
	require.NotNil(t, got.PriceTrendPct)
	assert.Equal(t, 0.0, *got.PriceTrendPct)
	assert.True(t, got.PriceAlert, "last >= 1.25 * min90d should alert")
}

func TestComputeEmptySeries(t *testing.T) {
	got := Compute(nil, day(2026, 2, 9))
	assert.Nil(t, got.LastUnitPrice)
	assert.Nil(t, got.AvgUnitPrice30d)
	assert.Nil(t, got.MinUnitPrice90d)
	assert.Nil(t, got.PriceTrendPct)
	assert.False(t, got.PriceAlert)
}

func TestComputeIgnoresFuturePoints(t *testing.T) {
	points := []Point{
		{At: day(2026, 2, 20), UnitPrice: 9.99},
		{At: day(2026, 2, 1), UnitPrice: 2.00},
	}
	got := Compute(points, day(2026, 2, 9))
	require.NotNil(t, got.LastUnitPrice)
	assert.Equal(t, 2.00, *got.LastUnitPrice)
}

func TestComputeOldPointsLeaveWindowsEmpty(t *testing.T) {
	points := []Point{{At: day(2025, 1, 1), UnitPrice: 4.00}}
	got := Compute(points, day(2026, 2, 9))
	require.NotNil(t, got.LastUnitPrice)
	assert.Equal(t, 4.00, *got.LastUnitPrice)
	assert.Nil(t, got.AvgUnitPrice30d, "point older than 30d")
	assert.Nil(t, got.MinUnitPrice90d, "point older than 90d")
	assert.Nil(t, got.PriceTrendPct)
	assert.False(t, got.PriceAlert)
}
