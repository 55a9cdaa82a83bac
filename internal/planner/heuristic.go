package planner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pantryos/backend/internal/core"
)

// HeuristicModel is the model name stamped on runs produced by the
// deterministic planner.
const HeuristicModel = "heuristic-v1"

const maxDailyIdeas = 4

// Heuristic is the always-available planner. Daily ideas favor the lots
// with the most stock; weekly proposals restock clusters that fell below
// their unit's low-stock threshold.
type Heuristic struct{}

// NewHeuristic returns the deterministic planner.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Model implements Planner.
func (h *Heuristic) Model() string { return HeuristicModel }

// GenerateDaily proposes up to four meals built around the lots with the
// highest remaining quantity.
func (h *Heuristic) GenerateDaily(_ context.Context, in Input) ([]DailyIdea, error) {
	lots := make([]core.InventoryLot, 0, len(in.Lots))
	for _, lot := range in.Lots {
		if lot.QuantityRemaining > 0 {
			lots = append(lots, lot)
		}
	}
	sort.Slice(lots, func(i, j int) bool {
		if lots[i].QuantityRemaining != lots[j].QuantityRemaining {
			return lots[i].QuantityRemaining > lots[j].QuantityRemaining
		}
		return lots[i].ItemKey < lots[j].ItemKey
	})
	if len(lots) > maxDailyIdeas {
		lots = lots[:maxDailyIdeas]
	}

	ideas := make([]DailyIdea, 0, len(lots))
	for _, lot := range lots {
		cuisine := guessCuisine(lot.ItemKey)
		score := core.Clamp01(0.45 + math.Min(0.4, lot.QuantityRemaining/10) + 0.2*in.Feedback(lot.ItemKey))
		ideas = append(ideas, DailyIdea{
			Title:    fmt.Sprintf("%s %s dinner", capitalize(cuisine), lot.ItemName),
			Cuisine:  cuisine,
			ItemKeys: []string{lot.ItemKey},
			Score:    core.Round3(score),
		})
	}
	return ideas, nil
}

// GenerateWeekly proposes a restock line for every (itemKey, unit)
// cluster whose combined remaining quantity sits below the unit's
// low-stock threshold. Clusters are summed so that FEFO-split lots of
// the same item yield one line, not several.
func (h *Heuristic) GenerateWeekly(_ context.Context, in Input) ([]WeeklyItem, error) {
	type cluster struct {
		itemKey  string
		itemName string
		unit     core.Unit
		category core.ItemCategory
		quantity float64
	}
	var order []string
	clusters := make(map[string]*cluster)
	for _, lot := range in.Lots {
		key := lot.ItemKey + "|" + string(lot.Unit)
		c, ok := clusters[key]
		if !ok {
			c = &cluster{itemKey: lot.ItemKey, unit: lot.Unit, category: lot.Category}
			clusters[key] = c
			order = append(order, key)
		}
		c.quantity += lot.QuantityRemaining
		if lot.ItemName != "" {
			c.itemName = lot.ItemName
		}
	}

	items := make([]WeeklyItem, 0, len(order))
	for _, key := range order {
		c := clusters[key]
		threshold := core.LowStockThreshold(c.unit)
		if c.quantity >= threshold {
			continue
		}
		deficit := threshold - c.quantity
		score := core.Clamp01(0.5 + 0.35*math.Min(1, deficit/threshold) + 0.2*in.Feedback(c.itemKey))
		items = append(items, WeeklyItem{
			ItemKey:   c.itemKey,
			ItemName:  c.itemName,
			Quantity:  core.Round2(deficit + 0.5*threshold),
			Unit:      c.unit,
			Category:  c.category,
			Priority:  priorityForScore(score),
			Score:     core.Round3(score),
			Rationale: fmt.Sprintf("running low: %.4g %s remaining, restock target %.4g", c.quantity, c.unit, threshold),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ItemKey < items[j].ItemKey
	})
	return items, nil
}

func priorityForScore(score float64) core.RecommendationPriority {
	switch {
	case score > 0.8:
		return core.PriorityHigh
	case score > 0.6:
		return core.PriorityMedium
	default:
		return core.PriorityLow
	}
}

// guessCuisine keys off common pantry staples; anything unmatched is a
// mixed plate.
func guessCuisine(itemKey string) string {
	k := strings.ToLower(itemKey)
	switch {
	case strings.Contains(k, "rice"), strings.Contains(k, "soy"), strings.Contains(k, "tofu"):
		return "chinese"
	case strings.Contains(k, "pasta"), strings.Contains(k, "tomato"), strings.Contains(k, "olive"):
		return "italian"
	default:
		return "mixed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
