// Package engine is the stateful core of the home-inventory service:
// the receipt job queue, the per-household inventory ledger, the
// recommendation and check-in loop, shopping drafts with price
// intelligence, and the pantry health score.
//
// One engine mutex serializes every public operation, which makes all
// reads and writes linearizable per process. The only suspension points
// are planner calls; those run between a snapshot and a re-lock so the
// lock is never held across an outbound request.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/idempotency"
	"github.com/pantryos/backend/internal/ids"
	"github.com/pantryos/backend/internal/metrics"
	"github.com/pantryos/backend/internal/planner"
	"github.com/pantryos/backend/internal/pricing"
	"github.com/pantryos/backend/internal/store"
)

// DefaultMaxAttempts is how many claims a job gets before dead-letter.
const DefaultMaxAttempts = 3

const uploadTicketTTL = 15 * time.Minute

// Options configures a new engine. Zero values get sane defaults; tests
// inject frozen clocks and sequential id generators.
type Options struct {
	Clock        ids.Clock
	IDs          ids.Generator
	Bus          events.Emitter
	Planner      *planner.Fallback
	Metrics      *metrics.Metrics
	Archive      store.Archive
	UploadOrigin string
	MaxAttempts  int
}

// Engine is the single stateful object holding all in-memory state.
// Construct with New; tests build fresh instances per case.
type Engine struct {
	mu sync.Mutex

	clock   ids.Clock
	ids     ids.Generator
	bus     events.Emitter
	planner *planner.Fallback
	metrics *metrics.Metrics
	archive store.Archive
	idem    *idempotency.Store

	uploadOrigin string
	maxAttempts  int

	receipts    map[string]*core.ReceiptUpload
	jobs        map[string]*core.ReceiptProcessJob
	queue       []string // jobIDs, FIFO
	deadLetters []core.DeadLetter

	households map[string]*household

	// recommendationID → householdID, for feedback attribution across
	// household boundaries (mismatches are rejected as not-found).
	recHousehold map[string]string
}

// household is the per-tenant arena. Everything inside is guarded by
// the engine mutex.
type household struct {
	id string

	lots   []*core.InventoryLot
	events []*core.InventoryEvent

	runs      []*core.RecommendationRun
	daily     map[string][]*core.DailyRecommendation  // by runID
	weekly    map[string][]*core.WeeklyRecommendation // by runID
	recItems  map[string][]string                     // recommendationID → itemKeys
	feedback  []*core.RecommendationFeedback
	checkins  []*core.MealCheckin
	drafts    []*core.ShoppingDraft
	health    []core.PantryHealthScore
	prices    map[string][]pricing.Point // itemKey → observed unit prices
	lastStamp time.Time                  // last event timestamp, kept monotonic
}

// New constructs an engine.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = ids.SystemClock()
	}
	if opts.IDs == nil {
		opts.IDs = ids.UUIDGenerator()
	}
	if opts.Bus == nil {
		opts.Bus = events.NopEmitter{}
	}
	if opts.Planner == nil {
		opts.Planner = planner.WithFallback(nil, 0)
	}
	if opts.Archive == nil {
		opts.Archive = store.NewMemory()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.UploadOrigin == "" {
		opts.UploadOrigin = "http://localhost:8789"
	}
	e := &Engine{
		clock:        opts.Clock,
		ids:          opts.IDs,
		bus:          opts.Bus,
		planner:      opts.Planner,
		metrics:      opts.Metrics,
		archive:      opts.Archive,
		idem:         idempotency.NewStore(),
		uploadOrigin: opts.UploadOrigin,
		maxAttempts:  opts.MaxAttempts,
		receipts:     make(map[string]*core.ReceiptUpload),
		jobs:         make(map[string]*core.ReceiptProcessJob),
		households:   make(map[string]*household),
		recHousehold: make(map[string]string),
	}
	if e.metrics != nil {
		e.planner.OnFallback(func(runType string, _ error) {
			e.metrics.PlannerFallback(runType)
		})
	}
	return e
}

// household finds or creates the arena for one tenant. Caller holds mu.
func (e *Engine) household(id string) *household {
	h, ok := e.households[id]
	if !ok {
		h = &household{
			id:       id,
			daily:    make(map[string][]*core.DailyRecommendation),
			weekly:   make(map[string][]*core.WeeklyRecommendation),
			recItems: make(map[string][]string),
			prices:   make(map[string][]pricing.Point),
		}
		e.households[id] = h
	}
	return h
}

// now reads the clock.
func (e *Engine) now() time.Time { return e.clock.Now() }

// stamp returns a per-household monotonic event timestamp. Equal stamps
// are ordered by insertion. Caller holds mu.
func (h *household) stamp(now time.Time) time.Time {
	if now.Before(h.lastStamp) {
		now = h.lastStamp
	}
	h.lastStamp = now
	return now
}

// snapshotLots deep-copies the household's lots. Caller holds mu.
func (h *household) snapshotLots() []core.InventoryLot {
	out := make([]core.InventoryLot, 0, len(h.lots))
	for _, lot := range h.lots {
		out = append(out, *lot.Clone())
	}
	return out
}

// snapshotEvents deep-copies the household's events. Caller holds mu.
func (h *household) snapshotEvents() []core.InventoryEvent {
	out := make([]core.InventoryEvent, len(h.events))
	for i, ev := range h.events {
		out[i] = *ev
	}
	return out
}

// InventorySnapshot returns the full ledger view for one household.
func (e *Engine) InventorySnapshot(householdID string) *core.InventorySnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.household(householdID)
	return &core.InventorySnapshot{
		HouseholdID: householdID,
		Lots:        h.snapshotLots(),
		Events:      h.snapshotEvents(),
		AsOf:        e.now(),
	}
}

// QueueDepth reports how many jobs are waiting.
func (e *Engine) QueueDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// archiveDeadLetter mirrors a dead letter into the archive store.
// Called only after the engine lock is released, so a slow backend
// never blocks other operations; failures are logged, not surfaced.
func (e *Engine) archiveDeadLetter(dl core.DeadLetter) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.archive.RecordDeadLetter(ctx, dl); err != nil {
		slog.Warn("archive dead letter failed", "job_id", dl.JobID, "error", err)
	}
}

// Close releases engine resources. The in-memory engine holds none, but
// the lifecycle hook keeps composition symmetric with persistent
// backends.
func (e *Engine) Close() error { return nil }
