package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/health"
	"github.com/pantryos/backend/internal/store"
)

// PantryHealth returns the household's health score. With refresh (or
// when no score exists yet) a fresh one is computed, appended to the
// history, and mirrored to the archive. The archive write happens after
// the lock is released; a slow backend must not stall unrelated
// operations.
func (e *Engine) PantryHealth(householdID string, refresh bool) core.PantryHealthScore {
	score, fresh := e.pantryHealthLocked(householdID, refresh)
	if fresh {
		e.archiveHealth(score)
	}
	return score
}

// pantryHealthLocked computes (or serves the cached) score under the
// engine lock. fresh reports whether a new entry was appended and needs
// archiving.
func (e *Engine) pantryHealthLocked(householdID string, refresh bool) (core.PantryHealthScore, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	if !refresh && len(h.health) > 0 {
		return h.health[len(h.health)-1], false
	}

	checkins := make([]core.MealCheckin, 0, len(h.checkins))
	for _, c := range h.checkins {
		checkins = append(checkins, *c.Clone())
	}
	score := health.Compute(health.Inputs{
		HouseholdID: householdID,
		Lots:        h.snapshotLots(),
		Events:      h.snapshotEvents(),
		Checkins:    checkins,
		AsOf:        e.now(),
	})

	h.health = append(h.health, score)
	if len(h.health) > store.MaxHealthEntries {
		h.health = h.health[len(h.health)-store.MaxHealthEntries:]
	}

	if e.metrics != nil {
		e.metrics.SetHealthScore(householdID, score.Score)
	}
	e.bus.Emit(events.TypeHealthRefresh, "engine", householdID, map[string]interface{}{
		"score": score.Score,
		"as_of": score.AsOf,
	})
	return score, true
}

// HealthHistory returns up to limit entries, oldest first.
func (e *Engine) HealthHistory(ctx context.Context, householdID string, limit int) ([]core.PantryHealthScore, error) {
	history, err := e.archive.HealthHistory(ctx, householdID, limit)
	if err == nil && len(history) > 0 {
		return history, nil
	}
	if err != nil {
		slog.Warn("archive health history failed, serving in-memory", "household_id", householdID, "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.household(householdID)
	list := h.health
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return append([]core.PantryHealthScore(nil), list...), nil
}

func (e *Engine) archiveHealth(score core.PantryHealthScore) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.archive.AppendHealth(ctx, score); err != nil {
		slog.Warn("archive health append failed", "household_id", score.HouseholdID, "error", err)
	}
}
