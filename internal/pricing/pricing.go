// Package pricing computes windowed unit-price statistics and the price
// alert flag for shopping draft items.
package pricing

import (
	"sort"
	"time"

	"github.com/pantryos/backend/internal/core"
)

// Point is one observed unit price for an item.
type Point struct {
	At        time.Time
	UnitPrice float64
}

// Insights are the windowed aggregates for one item. Fields are nil when
// the window holds no points.
type Insights struct {
	LastUnitPrice   *float64
	AvgUnitPrice30d *float64
	MinUnitPrice90d *float64
	PriceTrendPct   *float64
	PriceAlert      bool
}

// Compute derives insights from a price series as of the given time.
// Points after asOf are ignored. Results depend only on the windowed
// aggregates, never on input order.
func Compute(points []Point, asOf time.Time) Insights {
	series := make([]Point, 0, len(points))
	for _, p := range points {
		if !p.At.After(asOf) {
			series = append(series, p)
		}
	}
	if len(series) == 0 {
		return Insights{}
	}
	sort.Slice(series, func(i, j int) bool {
		if !series[i].At.Equal(series[j].At) {
			return series[i].At.Before(series[j].At)
		}
		return series[i].UnitPrice < series[j].UnitPrice
	})

	rawLast := series[len(series)-1].UnitPrice
	last := core.Round3(rawLast)
	out := Insights{LastUnitPrice: &last}

	cutoff30 := asOf.AddDate(0, 0, -30)
	cutoff90 := asOf.AddDate(0, 0, -90)

	var sum30 float64
	var n30 int
	var min90 float64
	var has90 bool
	for _, p := range series {
		if !p.At.Before(cutoff30) {
			sum30 += p.UnitPrice
			n30++
		}
		if !p.At.Before(cutoff90) {
			if !has90 || p.UnitPrice < min90 {
				min90 = p.UnitPrice
				has90 = true
			}
		}
	}

	var avg30 float64
	if n30 > 0 {
		avg30 = sum30 / float64(n30)
		rounded := core.Round3(avg30)
		out.AvgUnitPrice30d = &rounded
	}
	if has90 {
		rounded := core.Round3(min90)
		out.MinUnitPrice90d = &rounded
	}
	if n30 > 0 && avg30 > 0 {
		trend := core.Round3(100 * (rawLast - avg30) / avg30)
		out.PriceTrendPct = &trend
	}

	if out.PriceTrendPct != nil && *out.PriceTrendPct >= 15 {
		out.PriceAlert = true
	}
	if has90 && rawLast >= 1.25*min90 {
		out.PriceAlert = true
	}
	return out
}
