package engine

import (
	"context"
	"time"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/ids"
	"github.com/pantryos/backend/internal/planner"
)

// GenerateDaily produces a daily meal plan and seeds one pending
// check-in per recommendation. The planner runs without the engine
// lock: state is snapshotted, the lock released for the call, and the
// run materialized after it returns. A cancelled context persists
// nothing.
func (e *Engine) GenerateDaily(ctx context.Context, householdID, targetDate string) (*core.DailyPlan, error) {
	if targetDate == "" {
		targetDate = e.now().Format("2006-01-02")
	}

	in := e.plannerInput(householdID, targetDate)
	ideas, model := e.planner.GenerateDaily(ctx, in)
	if err := ctx.Err(); err != nil {
		return nil, core.Conflictf("daily generation cancelled: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	now := e.now()
	run := &core.RecommendationRun{
		RunID:       e.ids.NewID(ids.Run),
		HouseholdID: householdID,
		RunType:     core.RunDaily,
		Model:       model,
		TargetDate:  targetDate,
		CreatedAt:   now,
	}
	h.runs = append(h.runs, run)

	recs := make([]core.DailyRecommendation, 0, len(ideas))
	checkins := make([]core.MealCheckin, 0, len(ideas))
	for _, idea := range ideas {
		rec := &core.DailyRecommendation{
			RecommendationID: e.ids.NewID(ids.Recommendation),
			RunID:            run.RunID,
			HouseholdID:      householdID,
			MealDate:         targetDate,
			Title:            idea.Title,
			Cuisine:          idea.Cuisine,
			ItemKeys:         append([]string(nil), idea.ItemKeys...),
			Score:            idea.Score,
		}
		h.daily[run.RunID] = append(h.daily[run.RunID], rec)
		h.recItems[rec.RecommendationID] = rec.ItemKeys
		e.recHousehold[rec.RecommendationID] = householdID

		checkin := &core.MealCheckin{
			CheckinID:         e.ids.NewID(ids.Checkin),
			RecommendationID:  rec.RecommendationID,
			HouseholdID:       householdID,
			MealDate:          targetDate,
			Title:             idea.Title,
			SuggestedItemKeys: append([]string(nil), idea.ItemKeys...),
			Status:            core.CheckinPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		h.checkins = append(h.checkins, checkin)

		recs = append(recs, *rec.Clone())
		checkins = append(checkins, *checkin.Clone())
	}

	if e.metrics != nil {
		e.metrics.PlannerRequest("daily", variantOf(model))
	}
	return &core.DailyPlan{Run: *run, Recommendations: recs, Checkins: checkins}, nil
}

// GenerateWeekly produces a weekly purchase plan for the week holding
// targetDate (normalized to its Monday).
func (e *Engine) GenerateWeekly(ctx context.Context, householdID, targetDate string) (*core.WeeklyPlan, error) {
	weekOf := e.weekOf(targetDate)

	in := e.plannerInput(householdID, weekOf)
	items, model := e.planner.GenerateWeekly(ctx, in)
	if err := ctx.Err(); err != nil {
		return nil, core.Conflictf("weekly generation cancelled: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	run := &core.RecommendationRun{
		RunID:       e.ids.NewID(ids.Run),
		HouseholdID: householdID,
		RunType:     core.RunWeekly,
		Model:       model,
		TargetDate:  weekOf,
		CreatedAt:   e.now(),
	}
	h.runs = append(h.runs, run)

	recs := make([]core.WeeklyRecommendation, 0, len(items))
	for _, item := range items {
		rec := &core.WeeklyRecommendation{
			RecommendationID: e.ids.NewID(ids.Recommendation),
			RunID:            run.RunID,
			HouseholdID:      householdID,
			WeekOf:           weekOf,
			ItemKey:          item.ItemKey,
			ItemName:         item.ItemName,
			Quantity:         item.Quantity,
			Unit:             item.Unit,
			Category:         item.Category,
			Priority:         item.Priority,
			Score:            item.Score,
			Rationale:        item.Rationale,
		}
		h.weekly[run.RunID] = append(h.weekly[run.RunID], rec)
		h.recItems[rec.RecommendationID] = []string{rec.ItemKey}
		e.recHousehold[rec.RecommendationID] = householdID
		recs = append(recs, *rec)
	}

	if e.metrics != nil {
		e.metrics.PlannerRequest("weekly", variantOf(model))
	}
	return &core.WeeklyPlan{Run: *run, Recommendations: recs}, nil
}

// LatestDaily returns the most recent daily plan, or not-found when the
// household has never generated one.
func (e *Engine) LatestDaily(householdID string) (*core.DailyPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	run := h.latestRun(core.RunDaily)
	if run == nil {
		return nil, core.NotFound("no daily recommendations for household %s", householdID)
	}
	recs := make([]core.DailyRecommendation, 0, len(h.daily[run.RunID]))
	for _, rec := range h.daily[run.RunID] {
		recs = append(recs, *rec.Clone())
	}
	var checkins []core.MealCheckin
	for _, c := range h.checkins {
		if _, ok := h.recOfRun(run.RunID, c.RecommendationID); ok {
			checkins = append(checkins, *c.Clone())
		}
	}
	return &core.DailyPlan{Run: *run, Recommendations: recs, Checkins: checkins}, nil
}

// LatestWeekly returns the most recent weekly plan.
func (e *Engine) LatestWeekly(householdID string) (*core.WeeklyPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	run := h.latestRun(core.RunWeekly)
	if run == nil {
		return nil, core.NotFound("no weekly recommendations for household %s", householdID)
	}
	recs := make([]core.WeeklyRecommendation, 0, len(h.weekly[run.RunID]))
	for _, rec := range h.weekly[run.RunID] {
		recs = append(recs, *rec)
	}
	return &core.WeeklyPlan{Run: *run, Recommendations: recs}, nil
}

// SubmitFeedback records an explicit signal for a recommendation. A
// household mismatch is reported as not-found so ids cannot be probed.
func (e *Engine) SubmitFeedback(recommendationID string, sub core.FeedbackSubmission) (*core.RecommendationFeedback, error) {
	if !sub.SignalType.Valid() {
		return nil, core.Invalidf("signalType", "unknown signal type %q", sub.SignalType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	owner, ok := e.recHousehold[recommendationID]
	if !ok {
		return nil, core.NotFound("recommendation %s", recommendationID)
	}
	if sub.HouseholdID != "" && sub.HouseholdID != owner {
		return nil, core.HouseholdMismatch()
	}

	value := core.DefaultSignalValue(sub.SignalType)
	if sub.SignalValue != nil {
		value = core.Clamp(*sub.SignalValue, -1, 1)
	}

	h := e.household(owner)
	fb := &core.RecommendationFeedback{
		FeedbackID:       e.ids.NewID(ids.Feedback),
		RecommendationID: recommendationID,
		HouseholdID:      owner,
		SignalType:       sub.SignalType,
		SignalValue:      value,
		Context:          sub.Context,
		CreatedAt:        e.now(),
	}
	h.feedback = append(h.feedback, fb)
	out := *fb
	return &out, nil
}

// recordImplicitFeedback appends a check-in-driven signal. Caller
// holds mu.
func (e *Engine) recordImplicitFeedback(h *household, recommendationID string, signal core.FeedbackSignalType, contextNote string) {
	if _, ok := e.recHousehold[recommendationID]; !ok {
		return
	}
	h.feedback = append(h.feedback, &core.RecommendationFeedback{
		FeedbackID:       e.ids.NewID(ids.Feedback),
		RecommendationID: recommendationID,
		HouseholdID:      h.id,
		SignalType:       signal,
		SignalValue:      core.DefaultSignalValue(signal),
		Context:          contextNote,
		CreatedAt:        e.now(),
	})
}

// plannerInput snapshots everything a planner needs under the lock.
func (e *Engine) plannerInput(householdID, targetDate string) planner.Input {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.household(householdID)
	return planner.Input{
		HouseholdID:    householdID,
		TargetDate:     targetDate,
		Lots:           h.snapshotLots(),
		FeedbackByItem: h.feedbackByItem(),
	}
}

// feedbackByItem averages signal values per item key across every
// feedback record whose recommendation included that key, rounded to
// three decimals. Caller holds mu.
func (h *household) feedbackByItem() map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, fb := range h.feedback {
		for _, key := range h.recItems[fb.RecommendationID] {
			sums[key] += fb.SignalValue
			counts[key]++
		}
	}
	out := make(map[string]float64, len(sums))
	for key, sum := range sums {
		out[key] = core.Round3(sum / float64(counts[key]))
	}
	return out
}

// latestRun returns the newest run of the given type. Caller holds mu.
func (h *household) latestRun(runType core.RunType) *core.RecommendationRun {
	for i := len(h.runs) - 1; i >= 0; i-- {
		if h.runs[i].RunType == runType {
			return h.runs[i]
		}
	}
	return nil
}

// runForWeek returns the newest weekly run targeting weekOf. Caller
// holds mu.
func (h *household) runForWeek(weekOf string) *core.RecommendationRun {
	for i := len(h.runs) - 1; i >= 0; i-- {
		if h.runs[i].RunType == core.RunWeekly && h.runs[i].TargetDate == weekOf {
			return h.runs[i]
		}
	}
	return nil
}

// recOfRun reports whether recommendationID belongs to the run. Caller
// holds mu.
func (h *household) recOfRun(runID, recommendationID string) (*core.DailyRecommendation, bool) {
	for _, rec := range h.daily[runID] {
		if rec.RecommendationID == recommendationID {
			return rec, true
		}
	}
	return nil, false
}

// weekOf normalizes a date to the Monday of its week. Empty input uses
// the current date.
func (e *Engine) weekOf(date string) string {
	t := e.now()
	if date != "" {
		if parsed, err := time.Parse("2006-01-02", date); err == nil {
			t = parsed
		}
	}
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return t.AddDate(0, 0, -offset).Format("2006-01-02")
}

func variantOf(model string) string {
	if model == planner.HeuristicModel {
		return "heuristic"
	}
	return "llm"
}
