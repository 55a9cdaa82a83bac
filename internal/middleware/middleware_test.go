package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWorkerAuthAcceptsMatchingToken(t *testing.T) {
	h := WorkerAuth("secret-token")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/jobs/claim", nil)
	req.Header.Set(WorkerTokenHeader, "secret-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkerAuthRejectsWrongToken(t *testing.T) {
	h := WorkerAuth("secret-token")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/jobs/claim", nil)
	req.Header.Set(WorkerTokenHeader, "not-it")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}

func TestWorkerAuthRejectsMissingToken(t *testing.T) {
	h := WorkerAuth("secret-token")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/jobs/claim", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWorkerAuthEmptyConfiguredTokenRejectsAll(t *testing.T) {
	h := WorkerAuth("")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/jobs/claim", nil)
	req.Header.Set(WorkerTokenHeader, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewRateLimiter(5)
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("client-a"))
	}
}

func TestRateLimiterBlocksOverBudget(t *testing.T) {
	rl := NewRateLimiter(2)
	assert.True(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))

	// Other keys keep their own window.
	assert.True(t, rl.Allow("client-b"))
}

func TestRateLimiterMiddlewareReturns429(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/inventory/hh", nil)
	req.Header.Set("X-Client-ID", "client-a")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/inventory/hh", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
