package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/ids"
	"github.com/pantryos/backend/internal/store"
)

var t0 = time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	clock  *ids.FrozenClock
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	clock := ids.NewFrozenClock(t0)
	o := Options{
		Clock: clock,
		IDs:   ids.NewSeqGenerator(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &fixture{engine: New(o), clock: clock}
}

func withMaxAttempts(n int) func(*Options) {
	return func(o *Options) { o.MaxAttempts = n }
}

// ingestReceipt walks one receipt through upload, enqueue, claim, and
// result submission, returning the outcome.
func (f *fixture) ingestReceipt(t *testing.T, householdID, ocrText string, items []core.ReceiptItem) *core.JobResultOutcome {
	t.Helper()
	ticket, err := f.engine.CreateUpload(core.UploadRequest{
		HouseholdID: householdID,
		Filename:    "receipt-1.jpg",
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	purchased := t0
	_, err = f.engine.EnqueueJob(ticket.ReceiptUploadID, core.ProcessRequest{
		HouseholdID: householdID,
		OCRText:     ocrText,
		PurchasedAt: &purchased,
	})
	require.NoError(t, err)

	claimed, err := f.engine.ClaimNextJob()
	require.NoError(t, err)
	require.NotNil(t, claimed)

	outcome, err := f.engine.SubmitJobResult(claimed.Job.JobID, core.JobResultSubmission{Items: items})
	require.NoError(t, err)
	return outcome
}

func riceAndTomato() []core.ReceiptItem {
	return []core.ReceiptItem{
		{RawName: "Jasmine Rice 2kg", NormalizedName: "Jasmine Rice", ItemKey: "jasmine-rice", Quantity: 2, Unit: core.UnitKg, Category: core.CategoryGrain},
		{RawName: "Tomato x4", NormalizedName: "Tomato", ItemKey: "tomato", Quantity: 4, Unit: core.UnitCount, Category: core.CategoryProduce},
	}
}

func f64p(v float64) *float64 { return &v }
func timep(t time.Time) *time.Time {
	return &t
}

// stallArchive blocks its writes until released, exposing whether the
// engine lock is held across archive I/O.
type stallArchive struct {
	store.Archive
	entered chan struct{}
	release chan struct{}
}

func newStallArchive() *stallArchive {
	return &stallArchive{
		Archive: store.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (a *stallArchive) RecordDeadLetter(ctx context.Context, dl core.DeadLetter) error {
	close(a.entered)
	<-a.release
	return a.Archive.RecordDeadLetter(ctx, dl)
}

func (a *stallArchive) AppendHealth(ctx context.Context, score core.PantryHealthScore) error {
	close(a.entered)
	<-a.release
	return a.Archive.AppendHealth(ctx, score)
}
