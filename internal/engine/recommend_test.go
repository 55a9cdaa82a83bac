package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/planner"
)

func seedStockedPantry(t *testing.T, f *fixture, householdID string) {
	t.Helper()
	_, err := f.engine.AddManualItems(householdID, core.ManualEntryCommand{
		Items: []core.ManualItem{
			{Name: "Jasmine Rice", Quantity: 5, Unit: core.UnitKg, Category: core.CategoryGrain},
			{Name: "Tomato", Quantity: 6, Unit: core.UnitCount, Category: core.CategoryProduce},
			{Name: "Milk", Quantity: 0.5, Unit: core.UnitL, Category: core.CategoryDairy},
		},
	})
	require.NoError(t, err)
}

func TestGenerateDailySeedsCheckins(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")

	plan, err := f.engine.GenerateDaily(context.Background(), "hh", "2026-02-08")
	require.NoError(t, err)

	assert.Equal(t, core.RunDaily, plan.Run.RunType)
	assert.Equal(t, planner.HeuristicModel, plan.Run.Model)
	assert.Equal(t, "2026-02-08", plan.Run.TargetDate)
	require.NotEmpty(t, plan.Recommendations)
	require.Len(t, plan.Checkins, len(plan.Recommendations))

	for i, rec := range plan.Recommendations {
		checkin := plan.Checkins[i]
		assert.Equal(t, rec.RecommendationID, checkin.RecommendationID)
		assert.Equal(t, core.CheckinPending, checkin.Status)
		assert.Equal(t, rec.ItemKeys, checkin.SuggestedItemKeys)
	}

	pending := f.engine.ListPendingCheckins("hh")
	assert.Len(t, pending, len(plan.Recommendations))
}

func TestGenerateDailyDefaultsTargetDate(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")

	plan, err := f.engine.GenerateDaily(context.Background(), "hh", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-08", plan.Run.TargetDate)
}

func TestGenerateDailyCancelledContextPersistsNothing(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.GenerateDaily(ctx, "hh", "2026-02-08")
	assert.True(t, core.IsKind(err, core.ErrConflict))

	_, err = f.engine.LatestDaily("hh")
	assert.True(t, core.IsKind(err, core.ErrNotFound))
	assert.Empty(t, f.engine.ListPendingCheckins("hh"))
}

func TestLatestDailyReturnsNewestRun(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")

	_, err := f.engine.GenerateDaily(context.Background(), "hh", "2026-02-08")
	require.NoError(t, err)
	second, err := f.engine.GenerateDaily(context.Background(), "hh", "2026-02-09")
	require.NoError(t, err)

	latest, err := f.engine.LatestDaily("hh")
	require.NoError(t, err)
	assert.Equal(t, second.Run.RunID, latest.Run.RunID)
	assert.Len(t, latest.Recommendations, len(second.Recommendations))
}

func TestGenerateWeeklyNormalizesWeekToMonday(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")

	// 2026-02-08 is a Sunday; its week starts 2026-02-02.
	plan, err := f.engine.GenerateWeekly(context.Background(), "hh", "2026-02-08")
	require.NoError(t, err)
	assert.Equal(t, core.RunWeekly, plan.Run.RunType)
	assert.Equal(t, "2026-02-02", plan.Run.TargetDate)

	require.NotEmpty(t, plan.Recommendations)
	for _, rec := range plan.Recommendations {
		assert.Equal(t, "2026-02-02", rec.WeekOf)
	}
}

func TestGenerateWeeklyRestocksLowClusters(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")

	plan, err := f.engine.GenerateWeekly(context.Background(), "hh", "2026-02-08")
	require.NoError(t, err)

	keys := make(map[string]bool)
	for _, rec := range plan.Recommendations {
		keys[rec.ItemKey] = true
	}
	assert.True(t, keys["milk"], "0.5 l of milk sits below the low-stock threshold")
	assert.False(t, keys["jasmine-rice"], "5 kg of rice is comfortably stocked")
}

func TestSubmitFeedbackDefaultValues(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")
	plan, err := f.engine.GenerateDaily(context.Background(), "hh", "2026-02-08")
	require.NoError(t, err)
	recID := plan.Recommendations[0].RecommendationID

	fb, err := f.engine.SubmitFeedback(recID, core.FeedbackSubmission{SignalType: core.SignalAccepted})
	require.NoError(t, err)
	assert.Equal(t, 1.0, fb.SignalValue)
	assert.Equal(t, "hh", fb.HouseholdID)

	fb, err = f.engine.SubmitFeedback(recID, core.FeedbackSubmission{SignalType: core.SignalWasted})
	require.NoError(t, err)
	assert.Equal(t, -1.0, fb.SignalValue)
}

func TestSubmitFeedbackClampsExplicitValue(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")
	plan, err := f.engine.GenerateDaily(context.Background(), "hh", "2026-02-08")
	require.NoError(t, err)
	recID := plan.Recommendations[0].RecommendationID

	fb, err := f.engine.SubmitFeedback(recID, core.FeedbackSubmission{
		SignalType:  core.SignalEdited,
		SignalValue: f64p(7.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, fb.SignalValue)
}

func TestSubmitFeedbackRejectsUnknownSignal(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.SubmitFeedback("rec_000001", core.FeedbackSubmission{SignalType: "loved"})
	assert.True(t, core.IsKind(err, core.ErrInvalidRequest))
}

func TestSubmitFeedbackUnknownRecommendation(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.SubmitFeedback("rec_999999", core.FeedbackSubmission{SignalType: core.SignalAccepted})
	assert.True(t, core.IsKind(err, core.ErrNotFound))
}

func TestSubmitFeedbackCrossHouseholdIsRejected(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh-a")
	plan, err := f.engine.GenerateDaily(context.Background(), "hh-a", "2026-02-08")
	require.NoError(t, err)
	recID := plan.Recommendations[0].RecommendationID

	_, err = f.engine.SubmitFeedback(recID, core.FeedbackSubmission{
		HouseholdID: "hh-b",
		SignalType:  core.SignalAccepted,
	})
	assert.True(t, core.IsKind(err, core.ErrHouseholdMismatch))

	// Nothing recorded for either household.
	f.engine.mu.Lock()
	assert.Empty(t, f.engine.household("hh-a").feedback)
	assert.Empty(t, f.engine.household("hh-b").feedback)
	f.engine.mu.Unlock()
}

func TestFeedbackByItemAveragesSignals(t *testing.T) {
	f := newFixture(t)
	seedStockedPantry(t, f, "hh")
	plan, err := f.engine.GenerateDaily(context.Background(), "hh", "2026-02-08")
	require.NoError(t, err)
	rec := plan.Recommendations[0]

	_, err = f.engine.SubmitFeedback(rec.RecommendationID, core.FeedbackSubmission{SignalType: core.SignalAccepted}) // +1
	require.NoError(t, err)
	_, err = f.engine.SubmitFeedback(rec.RecommendationID, core.FeedbackSubmission{SignalType: core.SignalEdited}) // +0.25
	require.NoError(t, err)

	f.engine.mu.Lock()
	byItem := f.engine.household("hh").feedbackByItem()
	f.engine.mu.Unlock()

	for _, key := range rec.ItemKeys {
		assert.Equal(t, 0.625, byItem[key])
	}
}
