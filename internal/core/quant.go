package core

import "math"

// Round2 rounds to two decimals (recommended purchase quantities).
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Round3 rounds to three decimals (scores, prices, aggregates).
func Round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

// Clamp clamps v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LowStockThreshold is the quantity below which a lot counts as running
// low, by unit. Weekly planning and the stock-balance subscore share it.
func LowStockThreshold(u Unit) float64 {
	switch u {
	case UnitCount:
		return 4
	case UnitKg, UnitL, UnitLb:
		return 1
	case UnitPack, UnitBox, UnitBottle:
		return 2
	default:
		return 2
	}
}
