package engine

import (
	"fmt"
	"strings"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/idempotency"
	"github.com/pantryos/backend/internal/ids"
)

const (
	maxBatchSize    = 10
	maxImageDataURL = 3 << 20 // 3 MB data-URL ceiling for inline receipt images
)

// CreateUpload mints an upload slot for a receipt file. Every call
// creates a fresh id; the URL points into the configured upload origin.
func (e *Engine) CreateUpload(req core.UploadRequest) (*core.UploadTicket, error) {
	var issues []core.Issue
	if req.HouseholdID == "" {
		issues = append(issues, core.Issue{Path: "householdId", Message: "required"})
	}
	if req.Filename == "" {
		issues = append(issues, core.Issue{Path: "filename", Message: "required"})
	}
	if req.ContentType == "" {
		issues = append(issues, core.Issue{Path: "contentType", Message: "required"})
	}
	if len(issues) > 0 {
		return nil, core.InvalidRequest(issues...)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	id := e.ids.NewID(ids.Receipt)
	upload := &core.ReceiptUpload{
		ReceiptUploadID: id,
		HouseholdID:     req.HouseholdID,
		Filename:        req.Filename,
		ContentType:     req.ContentType,
		StoragePath:     fmt.Sprintf("receipts/%s/%s/%s", req.HouseholdID, id, sanitizeFilename(req.Filename)),
		Status:          core.ReceiptUploaded,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.receipts[id] = upload

	return &core.UploadTicket{
		ReceiptUploadID: id,
		UploadURL:       fmt.Sprintf("%s/upload/%s", strings.TrimRight(e.uploadOrigin, "/"), id),
		Path:            upload.StoragePath,
		ExpiresAt:       now.Add(uploadTicketTTL),
	}, nil
}

// EnqueueJob queues extraction for an uploaded receipt. If an alive
// (queued or processing) job already exists for the upload, that job is
// returned unchanged, which upholds the one-alive-job invariant.
func (e *Engine) EnqueueJob(receiptUploadID string, req core.ProcessRequest) (*core.ReceiptProcessJob, error) {
	if req.OCRText == "" && req.ReceiptImageDataURL == "" {
		return nil, core.Invalidf("ocrText", "either ocrText or receiptImageDataUrl is required")
	}
	if len(req.ReceiptImageDataURL) > maxImageDataURL {
		return nil, core.Invalidf("receiptImageDataUrl", "image data URL exceeds 3 MB")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	upload, ok := e.receipts[receiptUploadID]
	if !ok {
		return nil, core.NotFound("receipt upload %s", receiptUploadID)
	}
	if req.HouseholdID != "" && req.HouseholdID != upload.HouseholdID {
		return nil, core.HouseholdMismatch()
	}
	if jobID, alive := e.aliveJobFor(receiptUploadID); alive {
		return e.jobs[jobID].Clone(), nil
	}

	now := e.now()
	if req.OCRText != "" {
		upload.OCRText = req.OCRText
	}
	if req.ReceiptImageDataURL != "" {
		upload.ReceiptImageDataURL = req.ReceiptImageDataURL
	}
	if req.MerchantName != "" {
		upload.MerchantName = req.MerchantName
	}
	if req.PurchasedAt != nil {
		t := *req.PurchasedAt
		upload.PurchasedAt = &t
	}
	upload.Status = core.ReceiptProcessing
	upload.UpdatedAt = now

	job := &core.ReceiptProcessJob{
		JobID:           e.ids.NewID(ids.Job),
		ReceiptUploadID: receiptUploadID,
		HouseholdID:     upload.HouseholdID,
		Status:          core.JobQueued,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.jobs[job.JobID] = job
	e.queue = append(e.queue, job.JobID)
	if e.metrics != nil {
		e.metrics.JobsEnqueued.Inc()
		e.metrics.QueueDepth.Set(float64(len(e.queue)))
	}
	return job.Clone(), nil
}

// aliveJobFor finds a queued or processing job for the upload. Caller
// holds mu.
func (e *Engine) aliveJobFor(receiptUploadID string) (string, bool) {
	for id, job := range e.jobs {
		if job.ReceiptUploadID == receiptUploadID &&
			(job.Status == core.JobQueued || job.Status == core.JobProcessing) {
			return id, true
		}
	}
	return "", false
}

// EnqueueBatch mints uploads and queues jobs for up to ten receipts in
// one call. Entries fail individually; accepted + rejected = requested.
func (e *Engine) EnqueueBatch(entries []core.BatchReceiptEntry) (*core.BatchResult, error) {
	if len(entries) == 0 {
		return nil, core.Invalidf("receipts", "at least one receipt is required")
	}
	if len(entries) > maxBatchSize {
		return nil, core.Invalidf("receipts", "at most %d receipts per batch", maxBatchSize)
	}

	result := &core.BatchResult{Requested: len(entries)}
	for i, entry := range entries {
		r := e.enqueueBatchEntry(i, entry)
		if r.Accepted {
			result.Accepted++
		} else {
			result.Rejected++
		}
		result.Results = append(result.Results, r)
	}
	return result, nil
}

func (e *Engine) enqueueBatchEntry(index int, entry core.BatchReceiptEntry) core.BatchEntryResult {
	reject := func(msg string) core.BatchEntryResult {
		return core.BatchEntryResult{Index: index, Accepted: false, Error: msg}
	}
	if entry.HouseholdID == "" {
		return reject("householdId is required")
	}
	if entry.OCRText == "" && entry.ReceiptImageDataURL == "" {
		return reject("either ocrText or receiptImageDataUrl is required")
	}
	if len(entry.ReceiptImageDataURL) > maxImageDataURL {
		return reject("image data URL exceeds 3 MB")
	}

	if prior, ok := e.idem.Get(idempotency.ScopeBatchEnqueue, entry.IdempotencyKey); ok {
		r := prior.(core.BatchEntryResult)
		r.Index = index
		if r.Job != nil {
			r.Job = r.Job.Clone()
		}
		return r
	}

	filename := entry.Filename
	if filename == "" {
		filename = "receipt.jpg"
	}
	ticket, err := e.CreateUpload(core.UploadRequest{
		HouseholdID: entry.HouseholdID,
		Filename:    filename,
		ContentType: "image/jpeg",
	})
	if err != nil {
		return reject(err.Error())
	}
	job, err := e.EnqueueJob(ticket.ReceiptUploadID, core.ProcessRequest{
		HouseholdID:         entry.HouseholdID,
		OCRText:             entry.OCRText,
		ReceiptImageDataURL: entry.ReceiptImageDataURL,
		MerchantName:        entry.MerchantName,
		PurchasedAt:         entry.PurchasedAt,
	})
	if err != nil {
		return reject(err.Error())
	}

	r := core.BatchEntryResult{
		Index:           index,
		Accepted:        true,
		ReceiptUploadID: ticket.ReceiptUploadID,
		Job:             job,
	}
	e.idem.Put(idempotency.ScopeBatchEnqueue, entry.IdempotencyKey, r)
	return r
}

// ClaimNextJob hands the queue head to a worker, or nil when the queue
// is empty. Heads whose job is no longer queued, or whose upload has
// vanished, are skipped.
func (e *Engine) ClaimNextJob() (*core.ClaimedJob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for len(e.queue) > 0 {
		jobID := e.queue[0]
		e.queue = e.queue[1:]

		job, ok := e.jobs[jobID]
		if !ok || job.Status != core.JobQueued {
			continue // stale head
		}
		upload, ok := e.receipts[job.ReceiptUploadID]
		if !ok {
			continue
		}

		job.Status = core.JobProcessing
		job.Attempts++
		job.UpdatedAt = e.now()
		if e.metrics != nil {
			e.metrics.QueueDepth.Set(float64(len(e.queue)))
		}
		return &core.ClaimedJob{Job: job.Clone(), Receipt: upload.Clone()}, nil
	}
	if e.metrics != nil {
		e.metrics.QueueDepth.Set(0)
	}
	return nil, nil
}

// SubmitJobResult completes a job with the worker's extraction and
// applies the inventory mutations. A retry against an already completed
// job returns the current snapshot without re-mutating anything.
func (e *Engine) SubmitJobResult(jobID string, sub core.JobResultSubmission) (*core.JobResultOutcome, error) {
	if len(sub.Items) == 0 {
		return nil, core.Invalidf("items", "at least one item is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[jobID]
	if !ok {
		return nil, core.NotFound("job %s", jobID)
	}
	upload, ok := e.receipts[job.ReceiptUploadID]
	if !ok {
		return nil, core.NotFound("receipt upload %s", job.ReceiptUploadID)
	}

	if job.Status == core.JobCompleted {
		return &core.JobResultOutcome{Job: job.Clone(), Receipt: upload.Clone()}, nil
	}
	if job.Status != core.JobProcessing && job.Status != core.JobQueued {
		return nil, core.Conflictf("job %s is %s", jobID, job.Status)
	}

	now := e.now()
	if sub.MerchantName != "" {
		upload.MerchantName = sub.MerchantName
	}
	if sub.PurchasedAt != nil {
		t := *sub.PurchasedAt
		upload.PurchasedAt = &t
	}
	if sub.OCRText != "" {
		upload.OCRText = sub.OCRText
	}
	upload.Items = normalizeItems(sub.Items)
	upload.Status = core.ReceiptParsed
	upload.UpdatedAt = now

	job.Status = core.JobCompleted
	job.Error = ""
	job.Notes = sub.Notes
	job.UpdatedAt = now

	h := e.household(upload.HouseholdID)
	eventsCreated := e.applyReceiptItems(h, upload.Items, upload.PurchasedAt, core.SourceReceipt)

	if e.metrics != nil {
		e.metrics.JobsCompleted.Inc()
	}
	e.bus.Emit(events.TypeReceiptParsed, "engine", upload.HouseholdID, map[string]interface{}{
		"receiptUploadId": upload.ReceiptUploadID,
		"jobId":           jobID,
		"items":           len(upload.Items),
		"eventsCreated":   eventsCreated,
	})

	return &core.JobResultOutcome{
		Job:           job.Clone(),
		Receipt:       upload.Clone(),
		EventsCreated: eventsCreated,
	}, nil
}

// FailJob records a worker failure. Below the attempt ceiling the job
// requeues at the tail; at the ceiling it dead-letters and the upload
// is marked failed. The archive mirror is written after the lock is
// released; a slow backend must not stall unrelated operations.
func (e *Engine) FailJob(jobID, errMsg string) (*core.ReceiptProcessJob, error) {
	job, dl, err := e.failJobLocked(jobID, errMsg)
	if err != nil {
		return nil, err
	}
	if dl != nil {
		e.archiveDeadLetter(*dl)
	}
	return job, nil
}

// failJobLocked applies the state transition under the engine lock and
// hands back the dead letter (when one was minted) for the caller to
// archive outside it.
func (e *Engine) failJobLocked(jobID, errMsg string) (*core.ReceiptProcessJob, *core.DeadLetter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[jobID]
	if !ok {
		return nil, nil, core.NotFound("job %s", jobID)
	}
	if job.Status == core.JobCompleted || job.Status == core.JobFailed {
		return nil, nil, core.Conflictf("job %s is %s", jobID, job.Status)
	}

	now := e.now()
	job.Error = errMsg
	job.UpdatedAt = now

	if job.Attempts < e.maxAttempts {
		job.Status = core.JobQueued
		e.queue = append(e.queue, jobID)
		if e.metrics != nil {
			e.metrics.JobFailed(false)
			e.metrics.QueueDepth.Set(float64(len(e.queue)))
		}
		return job.Clone(), nil, nil
	}

	job.Status = core.JobFailed
	if upload, ok := e.receipts[job.ReceiptUploadID]; ok {
		upload.Status = core.ReceiptFailed
		upload.UpdatedAt = now
	}
	dl := core.DeadLetter{
		JobID:           jobID,
		ReceiptUploadID: job.ReceiptUploadID,
		HouseholdID:     job.HouseholdID,
		Error:           errMsg,
		Attempts:        job.Attempts,
		FailedAt:        now,
	}
	e.deadLetters = append(e.deadLetters, dl)

	if e.metrics != nil {
		e.metrics.JobFailed(true)
	}
	e.bus.Emit(events.TypeJobDeadLetter, "engine", job.HouseholdID, map[string]interface{}{
		"jobId":           jobID,
		"receiptUploadId": job.ReceiptUploadID,
		"error":           errMsg,
		"attempts":        job.Attempts,
	})
	return job.Clone(), &dl, nil
}

// GetJob returns a job snapshot.
func (e *Engine) GetJob(jobID string) (*core.ReceiptProcessJob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[jobID]
	if !ok {
		return nil, core.NotFound("job %s", jobID)
	}
	return job.Clone(), nil
}

// GetReceipt returns an upload snapshot.
func (e *Engine) GetReceipt(receiptUploadID string) (*core.ReceiptUpload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	upload, ok := e.receipts[receiptUploadID]
	if !ok {
		return nil, core.NotFound("receipt upload %s", receiptUploadID)
	}
	return upload.Clone(), nil
}

// ListDeadLetters snapshots the process-global dead-letter list.
func (e *Engine) ListDeadLetters() []core.DeadLetter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.DeadLetter(nil), e.deadLetters...)
}

// sanitizeFilename keeps [A-Za-z0-9._-]; everything else becomes '_'.
func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// normalizeItems coerces worker-submitted items into the canonical
// enums and fills missing item keys from the normalized name.
func normalizeItems(items []core.ReceiptItem) []core.ReceiptItem {
	out := make([]core.ReceiptItem, 0, len(items))
	for _, it := range items {
		it.Unit = core.NormalizeUnit(string(it.Unit))
		it.Category = core.NormalizeCategory(string(it.Category))
		if it.NormalizedName == "" {
			it.NormalizedName = it.RawName
		}
		if it.ItemKey == "" {
			it.ItemKey = slugify(it.NormalizedName)
		}
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		out = append(out, it)
	}
	return out
}

// slugify lowercases and dashes a name into an item key.
func slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
