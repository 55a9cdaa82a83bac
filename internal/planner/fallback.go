package planner

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTimeout bounds one planner round trip.
const DefaultTimeout = 25 * time.Second

// Fallback tries a primary planner and silently degrades to the
// heuristic when the primary errors, times out, or is absent. Provider
// failures never reach API callers; the run simply records the
// heuristic's model name instead.
type Fallback struct {
	primary   Planner
	heuristic *Heuristic
	timeout   time.Duration

	// lastUsed reports which planner produced the most recent plan,
	// for logging and the planner-fallback metric.
	onFallback func(runType string, err error)
}

// WithFallback wraps primary (which may be nil) over the heuristic.
func WithFallback(primary Planner, timeout time.Duration) *Fallback {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fallback{primary: primary, heuristic: NewHeuristic(), timeout: timeout}
}

// OnFallback registers a hook invoked whenever the primary planner
// fails and the heuristic takes over.
func (f *Fallback) OnFallback(hook func(runType string, err error)) { f.onFallback = hook }

// Model implements Planner. It names the primary when one is wired; the
// per-run model is decided by whichever planner actually produced it.
func (f *Fallback) Model() string {
	if f.primary != nil {
		return f.primary.Model()
	}
	return f.heuristic.Model()
}

// GenerateDaily returns the primary's plan, or the heuristic's on any
// failure. The second return names the model that produced the plan.
func (f *Fallback) GenerateDaily(ctx context.Context, in Input) ([]DailyIdea, string) {
	if f.primary != nil {
		cctx, cancel := context.WithTimeout(ctx, f.timeout)
		ideas, err := f.primary.GenerateDaily(cctx, in)
		cancel()
		if err == nil {
			return ideas, f.primary.Model()
		}
		f.fellBack("daily", err)
	}
	ideas, _ := f.heuristic.GenerateDaily(ctx, in)
	return ideas, f.heuristic.Model()
}

// GenerateWeekly mirrors GenerateDaily for purchase planning.
func (f *Fallback) GenerateWeekly(ctx context.Context, in Input) ([]WeeklyItem, string) {
	if f.primary != nil {
		cctx, cancel := context.WithTimeout(ctx, f.timeout)
		items, err := f.primary.GenerateWeekly(cctx, in)
		cancel()
		if err == nil {
			return items, f.primary.Model()
		}
		f.fellBack("weekly", err)
	}
	items, _ := f.heuristic.GenerateWeekly(ctx, in)
	return items, f.heuristic.Model()
}

func (f *Fallback) fellBack(runType string, err error) {
	slog.Warn("planner fell back to heuristic", "run_type", runType, "error", err)
	if f.onFallback != nil {
		f.onFallback(runType, err)
	}
}
