// Package core holds the domain model shared by the engine, the HTTP
// layer, and the worker runtime. Entities are plain JSON-tagged structs;
// all mutation goes through the engine, which hands out copies.
package core

import "time"

// ReceiptUpload is the metadata + parsed-items record for one uploaded
// receipt. items is populated iff status == parsed.
type ReceiptUpload struct {
	ReceiptUploadID     string        `json:"receiptUploadId"`
	HouseholdID         string        `json:"householdId"`
	Filename            string        `json:"filename"`
	ContentType         string        `json:"contentType"`
	StoragePath         string        `json:"storagePath"`
	Status              ReceiptStatus `json:"status"`
	MerchantName        string        `json:"merchantName,omitempty"`
	PurchasedAt         *time.Time    `json:"purchasedAt,omitempty"`
	OCRText             string        `json:"ocrText,omitempty"`
	ReceiptImageDataURL string        `json:"receiptImageDataUrl,omitempty"`
	Items               []ReceiptItem `json:"items,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// ReceiptItem is one normalized line item extracted from a receipt.
type ReceiptItem struct {
	ItemKey        string       `json:"itemKey"`
	RawName        string       `json:"rawName"`
	NormalizedName string       `json:"normalizedName"`
	Quantity       float64      `json:"quantity"`
	Unit           Unit         `json:"unit"`
	Category       ItemCategory `json:"category"`
	UnitPrice      *float64     `json:"unitPrice,omitempty"`
}

// ReceiptProcessJob is a unit of receipt extraction handed to a worker.
// Exactly one job per receipt upload is alive (queued or processing) at
// any time; attempts increments on each claim and never decreases.
type ReceiptProcessJob struct {
	JobID           string    `json:"jobId"`
	ReceiptUploadID string    `json:"receiptUploadId"`
	HouseholdID     string    `json:"householdId"`
	Status          JobStatus `json:"status"`
	Attempts        int       `json:"attempts"`
	Error           string    `json:"error,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DeadLetter records a job that exhausted its attempts.
type DeadLetter struct {
	JobID           string    `json:"jobId"`
	ReceiptUploadID string    `json:"receiptUploadId"`
	HouseholdID     string    `json:"householdId"`
	Error           string    `json:"error"`
	Attempts        int       `json:"attempts"`
	FailedAt        time.Time `json:"failedAt"`
}

// InventoryLot is an in-inventory position of a specific item, unit, and
// category. Receipt intake merges into one lot per (itemKey, unit,
// category); manual entry always opens a new lot so that purchase dates
// stay distinct for FEFO.
type InventoryLot struct {
	LotID             string       `json:"lotId"`
	HouseholdID       string       `json:"householdId"`
	ItemKey           string       `json:"itemKey"`
	ItemName          string       `json:"itemName"`
	QuantityRemaining float64      `json:"quantityRemaining"`
	Unit              Unit         `json:"unit"`
	Category          ItemCategory `json:"category"`
	PurchasedAt       *time.Time   `json:"purchasedAt,omitempty"`
	ExpiresAt         *time.Time   `json:"expiresAt,omitempty"`
	ExpiryEstimatedAt *time.Time   `json:"expiryEstimatedAt,omitempty"`
	ExpirySource      ExpirySource `json:"expirySource,omitempty"`
	ExpiryConfidence  *float64     `json:"expiryConfidence,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// InventoryEvent is an append-only record of a lot's quantity change.
// Events never mutate after creation. Over a lot's lifetime,
// sum(add) - sum(consume) - sum(waste) - sum(adjust) == quantityRemaining
// (adjust events are subtractive in this ledger; they arise only from
// receipt-review reductions).
type InventoryEvent struct {
	EventID     string             `json:"eventId"`
	HouseholdID string             `json:"householdId"`
	LotID       string             `json:"lotId"`
	EventType   InventoryEventType `json:"eventType"`
	Quantity    float64            `json:"quantity"`
	Unit        Unit               `json:"unit"`
	Source      string             `json:"source"`
	Reason      string             `json:"reason,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Event sources recorded on inventory events.
const (
	SourceReceipt        = "receipt"
	SourceReceiptReview  = "receipt_review"
	SourceManual         = "manual"
	SourceCheckin        = "checkin"
	SourceExpiryOverride = "expiry_override"
)

// RecommendationRun records a single daily or weekly generation.
type RecommendationRun struct {
	RunID       string    `json:"runId"`
	HouseholdID string    `json:"householdId"`
	RunType     RunType   `json:"runType"`
	Model       string    `json:"model"`
	TargetDate  string    `json:"targetDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DailyRecommendation is one meal proposal from a daily run.
type DailyRecommendation struct {
	RecommendationID string   `json:"recommendationId"`
	RunID            string   `json:"runId"`
	HouseholdID      string   `json:"householdId"`
	MealDate         string   `json:"mealDate"`
	Title            string   `json:"title"`
	Cuisine          string   `json:"cuisine,omitempty"`
	ItemKeys         []string `json:"itemKeys"`
	Score            float64  `json:"score"`
}

// WeeklyRecommendation is one purchase proposal from a weekly run.
type WeeklyRecommendation struct {
	RecommendationID string                 `json:"recommendationId"`
	RunID            string                 `json:"runId"`
	HouseholdID      string                 `json:"householdId"`
	WeekOf           string                 `json:"weekOf"`
	ItemKey          string                 `json:"itemKey"`
	ItemName         string                 `json:"itemName"`
	Quantity         float64                `json:"quantity"`
	Unit             Unit                   `json:"unit"`
	Category         ItemCategory           `json:"category,omitempty"`
	Priority         RecommendationPriority `json:"priority"`
	Score            float64                `json:"score"`
	Rationale        string                 `json:"rationale,omitempty"`
}

// RecommendationFeedback is an explicit or implicit signal about one
// recommendation. signalValue is always within [-1, 1].
type RecommendationFeedback struct {
	FeedbackID       string             `json:"feedbackId"`
	RecommendationID string             `json:"recommendationId"`
	HouseholdID      string             `json:"householdId"`
	SignalType       FeedbackSignalType `json:"signalType"`
	SignalValue      float64            `json:"signalValue"`
	Context          string             `json:"context,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// MealCheckin tracks whether a recommended meal was actually made.
// Created pending alongside each daily recommendation; submission
// depletes stock FEFO and seeds implicit feedback.
type MealCheckin struct {
	CheckinID         string             `json:"checkinId"`
	RecommendationID  string             `json:"recommendationId"`
	HouseholdID       string             `json:"householdId"`
	MealDate          string             `json:"mealDate"`
	Title             string             `json:"title"`
	SuggestedItemKeys []string           `json:"suggestedItemKeys"`
	Status            MealCheckinStatus  `json:"status"`
	Outcome           MealCheckinOutcome `json:"outcome,omitempty"`
	Lines             []CheckinLine      `json:"lines,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// CheckinLine is one consumed/wasted quantity within a check-in.
type CheckinLine struct {
	ItemKey          string  `json:"itemKey"`
	Unit             Unit    `json:"unit"`
	QuantityConsumed float64 `json:"quantityConsumed"`
	QuantityWasted   float64 `json:"quantityWasted,omitempty"`
}

// ShoppingDraft is a mutable, finalizable shopping list derived from a
// weekly run. At most one non-finalized draft per (household, weekOf).
type ShoppingDraft struct {
	DraftID     string              `json:"draftId"`
	HouseholdID string              `json:"householdId"`
	WeekOf      string              `json:"weekOf"`
	Status      ShoppingDraftStatus `json:"status"`
	SourceRunID string              `json:"sourceRunId"`
	Items       []ShoppingDraftItem `json:"items"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	FinalizedAt *time.Time          `json:"finalizedAt,omitempty"`
}

// ShoppingDraftItem is one draft line with its price intelligence.
type ShoppingDraftItem struct {
	DraftItemID     string                  `json:"draftItemId"`
	ItemKey         string                  `json:"itemKey"`
	ItemName        string                  `json:"itemName"`
	Quantity        float64                 `json:"quantity"`
	Unit            Unit                    `json:"unit"`
	Category        ItemCategory            `json:"category,omitempty"`
	Priority        RecommendationPriority  `json:"priority"`
	Score           float64                 `json:"score"`
	ItemStatus      ShoppingDraftItemStatus `json:"itemStatus"`
	Notes           string                  `json:"notes,omitempty"`
	LastUnitPrice   *float64                `json:"lastUnitPrice,omitempty"`
	AvgUnitPrice30d *float64                `json:"avgUnitPrice30d,omitempty"`
	MinUnitPrice90d *float64                `json:"minUnitPrice90d,omitempty"`
	PriceTrendPct   *float64                `json:"priceTrendPct,omitempty"`
	PriceAlert      bool                    `json:"priceAlert"`
}

// PantryHealthScore is the weighted composite summarizing stock and
// behavior for one household at a point in time.
type PantryHealthScore struct {
	HouseholdID string          `json:"householdId"`
	AsOf        time.Time       `json:"asOf"`
	Score       float64         `json:"score"`
	Subscores   HealthSubscores `json:"subscores"`
}

// HealthSubscores are the five components of the pantry health score,
// each on [0, 100].
type HealthSubscores struct {
	StockBalance  float64 `json:"stock_balance"`
	ExpiryRisk    float64 `json:"expiry_risk"`
	WastePressure float64 `json:"waste_pressure"`
	PlanAdherence float64 `json:"plan_adherence"`
	DataQuality   float64 `json:"data_quality"`
}
