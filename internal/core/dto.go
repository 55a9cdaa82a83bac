package core

import "time"

// UploadRequest asks for a presigned-style upload slot.
type UploadRequest struct {
	HouseholdID string `json:"householdId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// UploadTicket is the minted upload slot. The URL is a pointer into the
// configured upload origin; no blob storage is touched here.
type UploadTicket struct {
	ReceiptUploadID string    `json:"receiptUploadId"`
	UploadURL       string    `json:"uploadUrl"`
	Path            string    `json:"path"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// ProcessRequest enqueues extraction for an uploaded receipt.
type ProcessRequest struct {
	HouseholdID         string     `json:"householdId"`
	OCRText             string     `json:"ocrText,omitempty"`
	ReceiptImageDataURL string     `json:"receiptImageDataUrl,omitempty"`
	MerchantName        string     `json:"merchantName,omitempty"`
	PurchasedAt         *time.Time `json:"purchasedAt,omitempty"`
}

// BatchReceiptEntry is one receipt in a batch-process request. Entries
// without a prior upload carry their payload inline; an upload record is
// minted on acceptance.
type BatchReceiptEntry struct {
	HouseholdID         string     `json:"householdId"`
	Filename            string     `json:"filename,omitempty"`
	OCRText             string     `json:"ocrText,omitempty"`
	ReceiptImageDataURL string     `json:"receiptImageDataUrl,omitempty"`
	MerchantName        string     `json:"merchantName,omitempty"`
	PurchasedAt         *time.Time `json:"purchasedAt,omitempty"`
	IdempotencyKey      string     `json:"idempotencyKey,omitempty"`
}

// BatchEntryResult is the per-entry outcome of a batch-process request.
type BatchEntryResult struct {
	Index           int                `json:"index"`
	Accepted        bool               `json:"accepted"`
	ReceiptUploadID string             `json:"receiptUploadId,omitempty"`
	Job             *ReceiptProcessJob `json:"job,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// BatchResult summarizes a batch-process request.
// accepted + rejected == requested always holds.
type BatchResult struct {
	Requested int                `json:"requested"`
	Accepted  int                `json:"accepted"`
	Rejected  int                `json:"rejected"`
	Results   []BatchEntryResult `json:"results"`
}

// ClaimedJob pairs a claimed job with its receipt snapshot so the worker
// has everything it needs without further reads.
type ClaimedJob struct {
	Job     *ReceiptProcessJob `json:"job"`
	Receipt *ReceiptUpload     `json:"receipt"`
}

// JobResultSubmission is the worker's normalized extraction result.
type JobResultSubmission struct {
	MerchantName string        `json:"merchantName,omitempty"`
	PurchasedAt  *time.Time    `json:"purchasedAt,omitempty"`
	OCRText      string        `json:"ocrText,omitempty"`
	Items        []ReceiptItem `json:"items"`
	Notes        string        `json:"notes,omitempty"`
}

// JobResultOutcome reports a completed submission back to the worker.
type JobResultOutcome struct {
	Job           *ReceiptProcessJob `json:"job"`
	Receipt       *ReceiptUpload     `json:"receipt"`
	EventsCreated int                `json:"eventsCreated"`
}

// ReviewCommand corrects a parsed receipt's items.
type ReviewCommand struct {
	HouseholdID    string        `json:"householdId"`
	Mode           ReviewMode    `json:"mode"`
	Items          []ReceiptItem `json:"items"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
}

// ReviewResult reports what a review application changed.
type ReviewResult struct {
	Applied       bool           `json:"applied"`
	EventsCreated int            `json:"eventsCreated"`
	Receipt       *ReceiptUpload `json:"receipt"`
}

// ManualItem is one manually entered inventory line. An explicit
// expiresAt wins over estimation (source exact, confidence 1).
type ManualItem struct {
	ItemKey   string       `json:"itemKey,omitempty"`
	Name      string       `json:"name"`
	Quantity  float64      `json:"quantity"`
	Unit      Unit         `json:"unit"`
	Category  ItemCategory `json:"category"`
	UnitPrice *float64     `json:"unitPrice,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

// ManualEntryCommand adds items outside the receipt flow.
type ManualEntryCommand struct {
	Items          []ManualItem `json:"items"`
	PurchasedAt    *time.Time   `json:"purchasedAt,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	IdempotencyKey string       `json:"idempotencyKey,omitempty"`
}

// ManualEntryResult reports the lots created by a manual entry.
type ManualEntryResult struct {
	Applied       bool           `json:"applied"`
	Lots          []InventoryLot `json:"lots"`
	EventsCreated int            `json:"eventsCreated"`
}

// ExpiryOverrideCommand pins a lot's expiry to an exact date.
type ExpiryOverrideCommand struct {
	HouseholdID string    `json:"householdId"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Notes       string    `json:"notes,omitempty"`
}

// InventorySnapshot is the full ledger view for one household.
type InventorySnapshot struct {
	HouseholdID string           `json:"householdId"`
	Lots        []InventoryLot   `json:"lots"`
	Events      []InventoryEvent `json:"events"`
	AsOf        time.Time        `json:"asOf"`
}

// ExpiryRiskEntry is one lot ranked by time to expiry.
type ExpiryRiskEntry struct {
	Lot             InventoryLot `json:"lot"`
	DaysUntilExpiry int          `json:"daysUntilExpiry"`
	RiskLevel       RiskLevel    `json:"riskLevel"`
}

// ExpiryRiskReport buckets a household's expiring lots, soonest first.
type ExpiryRiskReport struct {
	HouseholdID string            `json:"householdId"`
	AsOf        time.Time         `json:"asOf"`
	Entries     []ExpiryRiskEntry `json:"entries"`
	Counts      map[RiskLevel]int `json:"counts"`
}

// DailyPlan is a daily run with its recommendations. Pending check-ins
// created alongside are returned so clients can render them immediately.
type DailyPlan struct {
	Run             RecommendationRun     `json:"run"`
	Recommendations []DailyRecommendation `json:"recommendations"`
	Checkins        []MealCheckin         `json:"checkins,omitempty"`
}

// WeeklyPlan is a weekly run with its recommendations.
type WeeklyPlan struct {
	Run             RecommendationRun      `json:"run"`
	Recommendations []WeeklyRecommendation `json:"recommendations"`
}

// FeedbackSubmission is an explicit feedback signal from a client.
type FeedbackSubmission struct {
	HouseholdID string             `json:"householdId"`
	SignalType  FeedbackSignalType `json:"signalType"`
	SignalValue *float64           `json:"signalValue,omitempty"`
	Context     string             `json:"context,omitempty"`
}

// CheckinSubmission reports what happened to a recommended meal.
type CheckinSubmission struct {
	HouseholdID    string             `json:"householdId"`
	Outcome        MealCheckinOutcome `json:"outcome"`
	Lines          []CheckinLine      `json:"lines,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	IdempotencyKey string             `json:"idempotencyKey,omitempty"`
}

// CheckinResult reports the ledger effect of a check-in submission.
type CheckinResult struct {
	Checkin       *MealCheckin `json:"checkin"`
	EventsCreated int          `json:"eventsCreated"`
}

// DraftOptions steers shopping-draft generation.
type DraftOptions struct {
	WeekOf     string `json:"weekOf,omitempty"`
	Regenerate bool   `json:"regenerate,omitempty"`
}

// DraftItemPatch updates one draft line. Nil fields are left untouched.
type DraftItemPatch struct {
	DraftItemID string                   `json:"draftItemId"`
	ItemStatus  *ShoppingDraftItemStatus `json:"itemStatus,omitempty"`
	Quantity    *float64                 `json:"quantity,omitempty"`
	Notes       *string                  `json:"notes,omitempty"`
}

// DraftPatchCommand applies line updates to a draft.
type DraftPatchCommand struct {
	HouseholdID    string           `json:"householdId"`
	Items          []DraftItemPatch `json:"items"`
	IdempotencyKey string           `json:"idempotencyKey,omitempty"`
}

// DraftPatchResult reports whether a patch changed anything.
type DraftPatchResult struct {
	Updated bool           `json:"updated"`
	Draft   *ShoppingDraft `json:"draft"`
}
