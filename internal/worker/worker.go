// Package worker is the receipt-extraction runtime. It polls the
// backend for queued jobs, runs an extractor over the claimed receipt,
// and submits the normalized result, or fails the job so the queue's
// retry policy can decide its fate.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/extractor"
	"github.com/pantryos/backend/pkg/client"
)

// Submission retry policy: base * 2^(attempt-1), then fail the job.
const (
	DefaultPollInterval = 3 * time.Second
	submitBackoffBase   = 250 * time.Millisecond
	submitMaxAttempts   = 3
)

// Worker runs the claim/extract/submit loop.
type Worker struct {
	api      *client.Client
	primary  extractor.Extractor // nil when no LLM is configured
	fallback extractor.Extractor
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// New builds a worker. primary may be nil; the heuristic then carries
// every job.
func New(api *client.Client, primary extractor.Extractor, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Worker{
		api:      api,
		primary:  primary,
		fallback: extractor.NewHeuristic(),
		interval: interval,
		sleep:    sleepCtx,
	}
}

// Run polls until ctx is cancelled. An outstanding poll sleep is cut
// short by cancellation.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("worker polling", "interval", w.interval)
	for {
		claimed, err := w.api.ClaimJob(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("claim failed", "error", err)
			if err := w.sleep(ctx, w.interval); err != nil {
				return err
			}
			continue
		}
		if claimed == nil {
			if err := w.sleep(ctx, w.interval); err != nil {
				return err
			}
			continue
		}

		w.process(ctx, claimed)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// process extracts and submits one claimed job.
func (w *Worker) process(ctx context.Context, claimed *core.ClaimedJob) {
	job := claimed.Job
	slog.Info("claimed job", "job_id", job.JobID, "receipt_id", job.ReceiptUploadID, "attempt", job.Attempts)

	sub, err := w.extract(ctx, claimed.Receipt)
	if err != nil {
		slog.Warn("extraction failed", "job_id", job.JobID, "error", err)
		w.fail(ctx, job.JobID, err.Error())
		return
	}

	if err := w.submit(ctx, job.JobID, sub); err != nil {
		slog.Warn("submission exhausted retries", "job_id", job.JobID, "error", err)
		w.fail(ctx, job.JobID, "result submission failed: "+err.Error())
		return
	}
	slog.Info("job completed", "job_id", job.JobID, "items", len(sub.Items))
}

// extract runs the primary extractor and falls back to the heuristic
// only when the primary is absent. A configured LLM that errors fails
// the job; swallowing its errors would hide misconfiguration behind
// low-quality parses.
func (w *Worker) extract(ctx context.Context, receipt *core.ReceiptUpload) (core.JobResultSubmission, error) {
	if w.primary != nil {
		return w.primary.Extract(ctx, receipt)
	}
	return w.fallback.Extract(ctx, receipt)
}

// submit retries with exponential backoff before giving up.
func (w *Worker) submit(ctx context.Context, jobID string, sub core.JobResultSubmission) error {
	var lastErr error
	for attempt := 1; attempt <= submitMaxAttempts; attempt++ {
		if _, err := w.api.SubmitResult(ctx, jobID, sub); err == nil {
			return nil
		} else {
			lastErr = err
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				// 4xx will not improve with retries.
				return err
			}
		}
		if attempt < submitMaxAttempts {
			backoff := submitBackoffBase * (1 << (attempt - 1))
			if err := w.sleep(ctx, backoff); err != nil {
				return lastErr
			}
		}
	}
	return lastErr
}

func (w *Worker) fail(ctx context.Context, jobID, reason string) {
	if _, err := w.api.FailJob(ctx, jobID, reason); err != nil {
		slog.Warn("fail report failed", "job_id", jobID, "error", err)
	}
}

// sleepCtx sleeps unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
