package engine

import (
	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/events"
)

// ListPendingCheckins returns the household's open check-ins.
func (e *Engine) ListPendingCheckins(householdID string) []core.MealCheckin {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	out := make([]core.MealCheckin, 0)
	for _, c := range h.checkins {
		if c.Status == core.CheckinPending {
			out = append(out, *c.Clone())
		}
	}
	return out
}

// SubmitMealCheckin closes a pending check-in: made/partial outcomes
// with consumption lines deplete stock FEFO, skipped records implicit
// ignored feedback, wasted quantities produce waste events. A check-in
// that already closed is returned as-is so retries stay safe.
func (e *Engine) SubmitMealCheckin(checkinID string, sub core.CheckinSubmission) (*core.CheckinResult, error) {
	if !sub.Outcome.Valid() {
		return nil, core.Invalidf("outcome", "unknown outcome %q", sub.Outcome)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	checkin, h, err := e.findCheckin(checkinID, sub.HouseholdID)
	if err != nil {
		return nil, err
	}
	if checkin.Status != core.CheckinPending {
		return &core.CheckinResult{Checkin: checkin.Clone(), EventsCreated: 0}, nil
	}

	now := e.now()
	eventsCreated := 0
	shortfall := false
	consumedAny := false
	wastedAny := false

	switch sub.Outcome {
	case core.OutcomeSkipped:
		checkin.Status = core.CheckinCompleted
		e.recordImplicitFeedback(h, checkin.RecommendationID, core.SignalIgnored, "meal skipped")

	case core.OutcomeMade, core.OutcomePartial:
		if !hasConsumption(sub.Lines) {
			checkin.Status = core.CheckinNeedsAdjustment
			break
		}
		for _, line := range sub.Lines {
			if line.QuantityConsumed > 0 {
				created, covered := e.consumeFEFO(h, line.ItemKey, line.Unit, line.QuantityConsumed,
					core.EventConsume, core.SourceCheckin, "meal check-in")
				eventsCreated += created
				consumedAny = consumedAny || created > 0
				if !covered {
					shortfall = true
				}
			}
			if line.QuantityWasted > 0 {
				created, _ := e.consumeFEFO(h, line.ItemKey, line.Unit, line.QuantityWasted,
					core.EventWaste, core.SourceCheckin, "meal check-in waste")
				eventsCreated += created
				wastedAny = wastedAny || created > 0
			}
		}
		if shortfall {
			checkin.Status = core.CheckinNeedsAdjustment
		} else {
			checkin.Status = core.CheckinCompleted
		}
		if consumedAny {
			e.recordImplicitFeedback(h, checkin.RecommendationID, core.SignalConsumed, "meal check-in")
		}
		if wastedAny {
			e.recordImplicitFeedback(h, checkin.RecommendationID, core.SignalWasted, "meal check-in waste")
		}
	}

	checkin.Outcome = sub.Outcome
	checkin.Lines = append([]core.CheckinLine(nil), sub.Lines...)
	checkin.Notes = sub.Notes
	checkin.UpdatedAt = now

	if e.metrics != nil {
		e.metrics.CheckinSubmitted(string(sub.Outcome))
	}
	e.bus.Emit(events.TypeCheckinClosed, "engine", h.id, map[string]interface{}{
		"checkin_id":       checkin.CheckinID,
		"outcome":          string(sub.Outcome),
		"status":           string(checkin.Status),
		"events_created":   eventsCreated,
		"recommendationId": checkin.RecommendationID,
	})

	return &core.CheckinResult{Checkin: checkin.Clone(), EventsCreated: eventsCreated}, nil
}

// findCheckin resolves a check-in and enforces household ownership.
// Caller holds mu.
func (e *Engine) findCheckin(checkinID, householdID string) (*core.MealCheckin, *household, error) {
	for _, h := range e.households {
		for _, c := range h.checkins {
			if c.CheckinID == checkinID {
				if householdID != "" && householdID != c.HouseholdID {
					return nil, nil, core.HouseholdMismatch()
				}
				return c, h, nil
			}
		}
	}
	return nil, nil, core.NotFound("checkin %s", checkinID)
}

func hasConsumption(lines []core.CheckinLine) bool {
	for _, l := range lines {
		if l.QuantityConsumed > 0 || l.QuantityWasted > 0 {
			return true
		}
	}
	return false
}
