// Package api is the HTTP surface: the public /v1 routes, the
// worker-facing /internal routes behind the token gate, the WebSocket
// event stream, and /metrics.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pantryos/backend/internal/config"
	"github.com/pantryos/backend/internal/engine"
	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/metrics"
	"github.com/pantryos/backend/internal/middleware"
)

const shutdownDrain = 10 * time.Second

// Server wires the engine to its HTTP routes.
type Server struct {
	engine  *engine.Engine
	cfg     config.Config
	bus     *events.Bus
	metrics *metrics.Metrics
}

// NewServer builds a server. bus may be nil when no stream is served;
// m may be nil to skip HTTP instrumentation.
func NewServer(eng *engine.Engine, cfg config.Config, bus *events.Bus, m *metrics.Metrics) *Server {
	return &Server{engine: eng, cfg: cfg, bus: bus, metrics: m}
}

// Router assembles the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CORS)
	if s.metrics != nil {
		r.Use(s.instrument)
	}

	r.HandleFunc("/health", s.handleHealthz).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	if s.cfg.RateLimitPerMinute > 0 {
		v1.Use(middleware.NewRateLimiter(s.cfg.RateLimitPerMinute).Middleware)
	}

	v1.HandleFunc("/receipts/upload-url", s.handleCreateUpload).Methods("POST")
	v1.HandleFunc("/receipts/batch/process", s.handleEnqueueBatch).Methods("POST")
	v1.HandleFunc("/receipts/{receiptUploadId}", s.handleGetReceipt).Methods("GET")
	v1.HandleFunc("/receipts/{receiptUploadId}/process", s.handleEnqueueJob).Methods("POST")
	v1.HandleFunc("/receipts/{receiptUploadId}/review", s.handleReviewReceipt).Methods("PUT")
	// dead-letters before {jobId}: mux matches in registration order.
	v1.HandleFunc("/jobs/dead-letters", s.handleDeadLetters).Methods("GET")
	v1.HandleFunc("/jobs/{jobId}", s.handleGetJob).Methods("GET")

	v1.HandleFunc("/inventory/{householdId}", s.handleInventorySnapshot).Methods("GET")
	v1.HandleFunc("/inventory/{householdId}/manual-items", s.handleManualItems).Methods("POST")
	v1.HandleFunc("/inventory/{householdId}/lots/{lotId}/expiry", s.handleExpiryOverride).Methods("POST")
	v1.HandleFunc("/inventory/{householdId}/expiry-risk", s.handleExpiryRisk).Methods("GET")

	v1.HandleFunc("/recommendations/{householdId}/daily", s.handleLatestDaily).Methods("GET")
	v1.HandleFunc("/recommendations/{householdId}/daily/generate", s.handleGenerateDaily).Methods("POST")
	v1.HandleFunc("/recommendations/{householdId}/weekly", s.handleLatestWeekly).Methods("GET")
	v1.HandleFunc("/recommendations/{householdId}/weekly/generate", s.handleGenerateWeekly).Methods("POST")
	v1.HandleFunc("/recommendations/{recommendationId}/feedback", s.handleFeedback).Methods("POST")

	v1.HandleFunc("/checkins/{householdId}/pending", s.handlePendingCheckins).Methods("GET")
	v1.HandleFunc("/checkins/{checkinId}/submit", s.handleSubmitCheckin).Methods("POST")

	v1.HandleFunc("/shopping-drafts/{householdId}/generate", s.handleGenerateDraft).Methods("POST")
	v1.HandleFunc("/shopping-drafts/{householdId}/latest", s.handleLatestDraft).Methods("GET")
	v1.HandleFunc("/shopping-drafts/{draftId}/items", s.handlePatchDraft).Methods("PATCH")
	v1.HandleFunc("/shopping-drafts/{draftId}/finalize", s.handleFinalizeDraft).Methods("POST")

	v1.HandleFunc("/pantry-health/{householdId}", s.handlePantryHealth).Methods("GET")
	v1.HandleFunc("/pantry-health/{householdId}/history", s.handleHealthHistory).Methods("GET")

	if s.bus != nil {
		v1.HandleFunc("/events/{householdId}/stream", s.handleEventStream).Methods("GET")
	}

	internal := r.PathPrefix("/internal").Subrouter()
	internal.Use(middleware.WorkerAuth(s.cfg.WorkerToken))
	internal.HandleFunc("/jobs/claim", s.handleClaimJob).Methods("POST")
	internal.HandleFunc("/jobs/{jobId}/result", s.handleJobResult).Methods("POST")
	internal.HandleFunc("/jobs/{jobId}/complete", s.handleJobResult).Methods("POST")
	internal.HandleFunc("/jobs/{jobId}/fail", s.handleFailJob).Methods("POST")

	return r
}

// Start serves until ctx is cancelled, then drains.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.APIPort),
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer cancel()
	log.Printf("⏳ draining HTTP connections")
	return srv.Shutdown(drainCtx)
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"queue_depth": s.engine.QueueDepth(),
	})
}

// instrument records request latency per route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.ObserveHTTP(route, r.Method, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
