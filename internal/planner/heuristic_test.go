package planner

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryos/backend/internal/core"
)

func stockedLot(itemKey, itemName string, qty float64, unit core.Unit, category core.ItemCategory) core.InventoryLot {
	return core.InventoryLot{
		ItemKey:           itemKey,
		ItemName:          itemName,
		QuantityRemaining: qty,
		Unit:              unit,
		Category:          category,
	}
}

func TestHeuristicDailyFavorsDeepestStock(t *testing.T) {
	h := NewHeuristic()
	ideas, err := h.GenerateDaily(context.Background(), Input{
		HouseholdID: "hh",
		Lots: []core.InventoryLot{
			stockedLot("tomato", "Tomato", 2, core.UnitCount, core.CategoryProduce),
			stockedLot("jasmine-rice", "Jasmine Rice", 5, core.UnitKg, core.CategoryGrain),
			stockedLot("used-up", "Used Up", 0, core.UnitCount, core.CategoryOther),
		},
	})
	require.NoError(t, err)
	require.Len(t, ideas, 2, "zero-quantity lots are skipped")
	assert.Equal(t, []string{"jasmine-rice"}, ideas[0].ItemKeys)
	assert.Equal(t, "chinese", ideas[0].Cuisine)
	assert.Equal(t, "italian", ideas[1].Cuisine)
}

func TestHeuristicDailyCapsIdeas(t *testing.T) {
	h := NewHeuristic()
	lots := make([]core.InventoryLot, 6)
	for i := range lots {
		key := fmt.Sprintf("item-%d", i)
		lots[i] = stockedLot(key, key, float64(i+1), core.UnitCount, core.CategoryOther)
	}
	ideas, err := h.GenerateDaily(context.Background(), Input{Lots: lots})
	require.NoError(t, err)
	assert.Len(t, ideas, maxDailyIdeas)
}

func TestHeuristicDailyFeedbackLiftsScore(t *testing.T) {
	h := NewHeuristic()
	base := Input{Lots: []core.InventoryLot{stockedLot("tofu", "Tofu", 3, core.UnitPack, core.CategoryProtein)}}
	liked := base
	liked.FeedbackByItem = map[string]float64{"tofu": 1}

	plain, err := h.GenerateDaily(context.Background(), base)
	require.NoError(t, err)
	boosted, err := h.GenerateDaily(context.Background(), liked)
	require.NoError(t, err)
	assert.Greater(t, boosted[0].Score, plain[0].Score)
}

func TestHeuristicWeeklySumsClustersBeforeThreshold(t *testing.T) {
	h := NewHeuristic()
	// Two FEFO-split milk lots sum to 1.2 l, above the 1 l threshold:
	// no restock line despite each lot being individually low.
	items, err := h.GenerateWeekly(context.Background(), Input{
		Lots: []core.InventoryLot{
			stockedLot("milk", "Milk", 0.7, core.UnitL, core.CategoryDairy),
			stockedLot("milk", "Milk", 0.5, core.UnitL, core.CategoryDairy),
			stockedLot("tomato", "Tomato", 1, core.UnitCount, core.CategoryProduce),
		},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "tomato", items[0].ItemKey)
	assert.Equal(t, core.UnitCount, items[0].Unit)
	assert.NotEmpty(t, items[0].Rationale)
}

func TestHeuristicWeeklyQuantityTargetsBuffer(t *testing.T) {
	h := NewHeuristic()
	items, err := h.GenerateWeekly(context.Background(), Input{
		Lots: []core.InventoryLot{stockedLot("tomato", "Tomato", 1, core.UnitCount, core.CategoryProduce)},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	// deficit 3 + half the threshold (2) = 5
	assert.Equal(t, 5.0, items[0].Quantity)
}

func TestFallbackUsesHeuristicWhenPrimaryAbsent(t *testing.T) {
	f := WithFallback(nil, 0)
	in := Input{Lots: []core.InventoryLot{stockedLot("tomato", "Tomato", 1, core.UnitCount, core.CategoryProduce)}}

	_, model := f.GenerateWeekly(context.Background(), in)
	assert.Equal(t, HeuristicModel, model)
}

type failingPlanner struct{}

func (failingPlanner) GenerateDaily(context.Context, Input) ([]DailyIdea, error) {
	return nil, fmt.Errorf("provider down")
}
func (failingPlanner) GenerateWeekly(context.Context, Input) ([]WeeklyItem, error) {
	return nil, fmt.Errorf("provider down")
}
func (failingPlanner) Model() string { return "flaky-llm" }

func TestFallbackRecoversFromPrimaryFailure(t *testing.T) {
	f := WithFallback(failingPlanner{}, 0)

	var fellBack string
	f.OnFallback(func(runType string, _ error) { fellBack = runType })

	in := Input{Lots: []core.InventoryLot{stockedLot("tomato", "Tomato", 5, core.UnitCount, core.CategoryProduce)}}
	ideas, model := f.GenerateDaily(context.Background(), in)

	assert.Equal(t, HeuristicModel, model)
	assert.NotEmpty(t, ideas)
	assert.Equal(t, "daily", fellBack)
}
