// Package planner turns an inventory snapshot plus feedback weights into
// daily meal ideas and weekly purchase proposals. Two implementations
// exist: a deterministic heuristic that is always available, and an LLM
// adapter that silently falls back to the heuristic on any failure.
//
// Planners are invoked without holding engine locks; callers snapshot
// state first and materialize the returned plan afterwards.
package planner

import (
	"context"

	"github.com/pantryos/backend/internal/core"
)

// Input is the read-only snapshot a planner works from. FeedbackByItem
// carries per-item averaged signal values in [-1, 1]; missing keys mean
// no feedback yet.
type Input struct {
	HouseholdID    string
	TargetDate     string
	Lots           []core.InventoryLot
	FeedbackByItem map[string]float64
}

// DailyIdea is one proposed meal for the target date.
type DailyIdea struct {
	Title    string
	Cuisine  string
	ItemKeys []string
	Score    float64
}

// WeeklyItem is one proposed purchase for the target week.
type WeeklyItem struct {
	ItemKey   string
	ItemName  string
	Quantity  float64
	Unit      core.Unit
	Category  core.ItemCategory
	Priority  core.RecommendationPriority
	Score     float64
	Rationale string
}

// Planner generates meal and purchase proposals. Implementations must
// honor ctx deadlines and return promptly on cancellation.
type Planner interface {
	GenerateDaily(ctx context.Context, in Input) ([]DailyIdea, error)
	GenerateWeekly(ctx context.Context, in Input) ([]WeeklyItem, error)

	// Model names the variant for RecommendationRun records.
	Model() string
}

// Feedback returns the averaged signal for an item key, zero when the
// household has no feedback for it yet.
func (in Input) Feedback(itemKey string) float64 {
	if in.FeedbackByItem == nil {
		return 0
	}
	return in.FeedbackByItem[itemKey]
}
