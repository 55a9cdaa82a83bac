package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryos/backend/internal/core"
)

// planWithCheckin seeds stock, generates a daily plan, and returns the
// first pending check-in.
func planWithCheckin(t *testing.T, f *fixture, householdID string) core.MealCheckin {
	t.Helper()
	seedStockedPantry(t, f, householdID)
	plan, err := f.engine.GenerateDaily(context.Background(), householdID, "2026-02-08")
	require.NoError(t, err)
	require.NotEmpty(t, plan.Checkins)
	return plan.Checkins[0]
}

func TestCheckinSkippedRecordsIgnoredFeedback(t *testing.T) {
	f := newFixture(t)
	checkin := planWithCheckin(t, f, "hh")

	res, err := f.engine.SubmitMealCheckin(checkin.CheckinID, core.CheckinSubmission{Outcome: core.OutcomeSkipped})
	require.NoError(t, err)
	assert.Equal(t, core.CheckinCompleted, res.Checkin.Status)
	assert.Equal(t, core.OutcomeSkipped, res.Checkin.Outcome)
	assert.Zero(t, res.EventsCreated)

	f.engine.mu.Lock()
	fb := f.engine.household("hh").feedback
	f.engine.mu.Unlock()
	require.Len(t, fb, 1)
	assert.Equal(t, core.SignalIgnored, fb[0].SignalType)
	assert.Equal(t, checkin.RecommendationID, fb[0].RecommendationID)
}

func TestCheckinMadeDepletesStockFEFO(t *testing.T) {
	f := newFixture(t)
	checkin := planWithCheckin(t, f, "hh")

	res, err := f.engine.SubmitMealCheckin(checkin.CheckinID, core.CheckinSubmission{
		Outcome: core.OutcomeMade,
		Lines: []core.CheckinLine{
			{ItemKey: "tomato", Unit: core.UnitCount, QuantityConsumed: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.CheckinCompleted, res.Checkin.Status)
	assert.Equal(t, 1, res.EventsCreated)

	snap := f.engine.InventorySnapshot("hh")
	assert.Equal(t, 4.0, lotsByKey(snap.Lots)["tomato"].QuantityRemaining)

	f.engine.mu.Lock()
	fb := f.engine.household("hh").feedback
	f.engine.mu.Unlock()
	require.Len(t, fb, 1)
	assert.Equal(t, core.SignalConsumed, fb[0].SignalType)
}

func TestCheckinWasteLinesProduceWasteEvents(t *testing.T) {
	f := newFixture(t)
	checkin := planWithCheckin(t, f, "hh")

	res, err := f.engine.SubmitMealCheckin(checkin.CheckinID, core.CheckinSubmission{
		Outcome: core.OutcomePartial,
		Lines: []core.CheckinLine{
			{ItemKey: "tomato", Unit: core.UnitCount, QuantityConsumed: 1, QuantityWasted: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.CheckinCompleted, res.Checkin.Status)
	assert.Equal(t, 2, res.EventsCreated)

	snap := f.engine.InventorySnapshot("hh")
	var consumes, wastes int
	for _, ev := range snap.Events {
		switch ev.EventType {
		case core.EventConsume:
			consumes++
		case core.EventWaste:
			wastes++
		}
	}
	assert.Equal(t, 1, consumes)
	assert.Equal(t, 1, wastes)

	f.engine.mu.Lock()
	fb := f.engine.household("hh").feedback
	f.engine.mu.Unlock()
	signals := make(map[core.FeedbackSignalType]bool)
	for _, x := range fb {
		signals[x.SignalType] = true
	}
	assert.True(t, signals[core.SignalConsumed])
	assert.True(t, signals[core.SignalWasted])
}

func TestCheckinMadeWithoutLinesNeedsAdjustment(t *testing.T) {
	f := newFixture(t)
	checkin := planWithCheckin(t, f, "hh")

	res, err := f.engine.SubmitMealCheckin(checkin.CheckinID, core.CheckinSubmission{Outcome: core.OutcomeMade})
	require.NoError(t, err)
	assert.Equal(t, core.CheckinNeedsAdjustment, res.Checkin.Status)
	assert.Zero(t, res.EventsCreated)
}

func TestCheckinShortfallNeedsAdjustment(t *testing.T) {
	f := newFixture(t)
	checkin := planWithCheckin(t, f, "hh")

	res, err := f.engine.SubmitMealCheckin(checkin.CheckinID, core.CheckinSubmission{
		Outcome: core.OutcomeMade,
		Lines: []core.CheckinLine{
			{ItemKey: "tomato", Unit: core.UnitCount, QuantityConsumed: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.CheckinNeedsAdjustment, res.Checkin.Status)

	// Lots never go negative on a shortfall.
	snap := f.engine.InventorySnapshot("hh")
	for _, lot := range snap.Lots {
		assert.GreaterOrEqual(t, lot.QuantityRemaining, 0.0)
	}
}

func TestCheckinResubmissionIsInert(t *testing.T) {
	f := newFixture(t)
	checkin := planWithCheckin(t, f, "hh")

	sub := core.CheckinSubmission{
		Outcome: core.OutcomeMade,
		Lines:   []core.CheckinLine{{ItemKey: "tomato", Unit: core.UnitCount, QuantityConsumed: 2}},
	}
	first, err := f.engine.SubmitMealCheckin(checkin.CheckinID, sub)
	require.NoError(t, err)
	assert.Equal(t, 1, first.EventsCreated)

	second, err := f.engine.SubmitMealCheckin(checkin.CheckinID, sub)
	require.NoError(t, err)
	assert.Zero(t, second.EventsCreated)
	assert.Equal(t, first.Checkin.Status, second.Checkin.Status)

	snap := f.engine.InventorySnapshot("hh")
	assert.Equal(t, 4.0, lotsByKey(snap.Lots)["tomato"].QuantityRemaining)
}

func TestCheckinUnknownOutcome(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.SubmitMealCheckin("checkin_000001", core.CheckinSubmission{Outcome: "devoured"})
	assert.True(t, core.IsKind(err, core.ErrInvalidRequest))
}

func TestCheckinHouseholdMismatch(t *testing.T) {
	f := newFixture(t)
	checkin := planWithCheckin(t, f, "hh-a")

	_, err := f.engine.SubmitMealCheckin(checkin.CheckinID, core.CheckinSubmission{
		HouseholdID: "hh-b",
		Outcome:     core.OutcomeSkipped,
	})
	assert.True(t, core.IsKind(err, core.ErrHouseholdMismatch))
}

func TestCheckinUnknownID(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.SubmitMealCheckin("checkin_missing", core.CheckinSubmission{Outcome: core.OutcomeSkipped})
	assert.True(t, core.IsKind(err, core.ErrNotFound))
}
