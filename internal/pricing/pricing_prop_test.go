package pricing

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestComputeRandomizedProperties(t *testing.T) {
	params := gopter.DefaultTestParametersWithSeed(1)
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	asOf := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

	series := func(prices []float64, offsets []int) []Point {
		points := make([]Point, len(prices))
		for i := range prices {
			points[i] = Point{
				At:        asOf.AddDate(0, 0, -offsets[i]),
				UnitPrice: prices[i],
			}
		}
		return points
	}

	props.Property("insights are order insensitive", prop.ForAll(
		func(prices []float64, offsets []int) bool {
			points := series(prices, offsets)
			reversed := make([]Point, len(points))
			for i, p := range points {
				reversed[len(points)-1-i] = p
			}
			return reflect.DeepEqual(Compute(points, asOf), Compute(reversed, asOf))
		},
		gen.SliceOfN(6, gen.Float64Range(0.5, 20)),
		gen.SliceOfN(6, gen.IntRange(0, 100)),
	))

	props.Property("an alert is always backed by trend or min window", prop.ForAll(
		func(prices []float64, offsets []int) bool {
			got := Compute(series(prices, offsets), asOf)
			if !got.PriceAlert {
				return true
			}
			if got.PriceTrendPct != nil && *got.PriceTrendPct >= 15 {
				return true
			}
			return got.MinUnitPrice90d != nil && got.LastUnitPrice != nil &&
				*got.LastUnitPrice >= 1.25**got.MinUnitPrice90d-1e-3
		},
		gen.SliceOfN(6, gen.Float64Range(0.5, 20)),
		gen.SliceOfN(6, gen.IntRange(0, 100)),
	))

	props.Property("windowed aggregates bound each other", prop.ForAll(
		func(prices []float64, offsets []int) bool {
			got := Compute(series(prices, offsets), asOf)
			if got.LastUnitPrice == nil {
				return false
			}
			if got.MinUnitPrice90d != nil && got.AvgUnitPrice30d != nil {
				return *got.MinUnitPrice90d <= *got.AvgUnitPrice30d+1e-3
			}
			return true
		},
		gen.SliceOfN(6, gen.Float64Range(0.5, 20)),
		gen.SliceOfN(6, gen.IntRange(0, 100)),
	))

	props.TestingRun(t)
}
