// Package client is the typed HTTP client for the pantry backend. The
// worker binary uses it for the claim/result/fail loop; integrators can
// use the public-surface methods the same way.
//
// Quick start:
//
//	c := client.New(client.Config{
//	    BaseURL:     "http://localhost:8789",
//	    WorkerToken: os.Getenv("HOME_INVENTORY_WORKER_TOKEN"),
//	})
//	claimed, err := c.ClaimJob(ctx)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pantryos/backend/internal/core"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API origin, e.g. "http://localhost:8789".
	BaseURL string

	// WorkerToken authenticates /internal routes. Public-surface
	// methods work without it.
	WorkerToken string

	// Timeout per request (default 30s).
	Timeout time.Duration
}

// Client talks to the pantry backend over JSON/HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New builds a client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pantry api returned %d: %s", e.StatusCode, e.Body)
}

// do runs one request and decodes the JSON response into out (when out
// is non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.WorkerToken != "" {
		req.Header.Set("x-home-inventory-worker-token", c.cfg.WorkerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// --- Worker protocol ---

// ClaimJob claims the next queued job. Returns nil when the queue is
// empty.
func (c *Client) ClaimJob(ctx context.Context) (*core.ClaimedJob, error) {
	var claimed core.ClaimedJob
	if err := c.do(ctx, http.MethodPost, "/internal/jobs/claim", struct{}{}, &claimed); err != nil {
		return nil, err
	}
	if claimed.Job == nil {
		return nil, nil
	}
	return &claimed, nil
}

// SubmitResult reports a successful extraction.
func (c *Client) SubmitResult(ctx context.Context, jobID string, sub core.JobResultSubmission) (*core.JobResultOutcome, error) {
	var outcome core.JobResultOutcome
	if err := c.do(ctx, http.MethodPost, "/internal/jobs/"+jobID+"/result", sub, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// FailJob reports a failed extraction; the backend decides retry vs
// dead-letter.
func (c *Client) FailJob(ctx context.Context, jobID, reason string) (*core.ReceiptProcessJob, error) {
	var resp struct {
		Job *core.ReceiptProcessJob `json:"job"`
	}
	body := map[string]string{"error": reason}
	if err := c.do(ctx, http.MethodPost, "/internal/jobs/"+jobID+"/fail", body, &resp); err != nil {
		return nil, err
	}
	return resp.Job, nil
}

// --- Public surface ---

// CreateUpload mints an upload slot for a receipt file.
func (c *Client) CreateUpload(ctx context.Context, req core.UploadRequest) (*core.UploadTicket, error) {
	var ticket core.UploadTicket
	if err := c.do(ctx, http.MethodPost, "/v1/receipts/upload-url", req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// EnqueueProcessing enqueues extraction for an uploaded receipt.
func (c *Client) EnqueueProcessing(ctx context.Context, receiptUploadID string, req core.ProcessRequest) (*core.ReceiptProcessJob, error) {
	var resp struct {
		Job *core.ReceiptProcessJob `json:"job"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/receipts/"+receiptUploadID+"/process", req, &resp); err != nil {
		return nil, err
	}
	return resp.Job, nil
}

// GetJob fetches a job's status.
func (c *Client) GetJob(ctx context.Context, jobID string) (*core.ReceiptProcessJob, error) {
	var resp struct {
		Job *core.ReceiptProcessJob `json:"job"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+jobID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Job, nil
}

// Inventory fetches the household's ledger snapshot.
func (c *Client) Inventory(ctx context.Context, householdID string) (*core.InventorySnapshot, error) {
	var snap core.InventorySnapshot
	if err := c.do(ctx, http.MethodGet, "/v1/inventory/"+householdID, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// PantryHealth fetches (optionally refreshing) the health score.
func (c *Client) PantryHealth(ctx context.Context, householdID string, refresh bool) (*core.PantryHealthScore, error) {
	path := "/v1/pantry-health/" + householdID
	if refresh {
		path += "?refresh=1"
	}
	var score core.PantryHealthScore
	if err := c.do(ctx, http.MethodGet, path, nil, &score); err != nil {
		return nil, err
	}
	return &score, nil
}
