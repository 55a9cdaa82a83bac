package core

// Unit is a normalized quantity unit.
type Unit string

const (
	UnitCount  Unit = "count"
	UnitG      Unit = "g"
	UnitKg     Unit = "kg"
	UnitMl     Unit = "ml"
	UnitL      Unit = "l"
	UnitOz     Unit = "oz"
	UnitLb     Unit = "lb"
	UnitPack   Unit = "pack"
	UnitBox    Unit = "box"
	UnitBottle Unit = "bottle"
)

var validUnits = map[Unit]bool{
	UnitCount: true, UnitG: true, UnitKg: true, UnitMl: true, UnitL: true,
	UnitOz: true, UnitLb: true, UnitPack: true, UnitBox: true, UnitBottle: true,
}

// Valid reports whether u is one of the normalized units.
func (u Unit) Valid() bool { return validUnits[u] }

// NormalizeUnit maps an arbitrary string to a known unit, falling back
// to count for anything unrecognized.
func NormalizeUnit(s string) Unit {
	u := Unit(s)
	if u.Valid() {
		return u
	}
	return UnitCount
}

// ItemCategory classifies an inventory item for expiry estimation.
type ItemCategory string

const (
	CategoryGrain     ItemCategory = "grain"
	CategoryProduce   ItemCategory = "produce"
	CategoryProtein   ItemCategory = "protein"
	CategoryDairy     ItemCategory = "dairy"
	CategorySnack     ItemCategory = "snack"
	CategoryBeverage  ItemCategory = "beverage"
	CategoryHousehold ItemCategory = "household"
	CategoryCondiment ItemCategory = "condiment"
	CategoryFrozen    ItemCategory = "frozen"
	CategoryOther     ItemCategory = "other"
)

var validCategories = map[ItemCategory]bool{
	CategoryGrain: true, CategoryProduce: true, CategoryProtein: true,
	CategoryDairy: true, CategorySnack: true, CategoryBeverage: true,
	CategoryHousehold: true, CategoryCondiment: true, CategoryFrozen: true,
	CategoryOther: true,
}

// Valid reports whether c is a known category.
func (c ItemCategory) Valid() bool { return validCategories[c] }

// NormalizeCategory maps an arbitrary string to a known category,
// falling back to other.
func NormalizeCategory(s string) ItemCategory {
	c := ItemCategory(s)
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// ReceiptStatus is the lifecycle state of a receipt upload.
type ReceiptStatus string

const (
	ReceiptUploaded   ReceiptStatus = "uploaded"
	ReceiptProcessing ReceiptStatus = "processing"
	ReceiptParsed     ReceiptStatus = "parsed"
	ReceiptFailed     ReceiptStatus = "failed"
)

// JobStatus is the lifecycle state of a receipt-processing job.
// completed and failed are terminal.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// InventoryEventType describes a lot quantity movement.
type InventoryEventType string

const (
	EventAdd     InventoryEventType = "add"
	EventConsume InventoryEventType = "consume"
	EventAdjust  InventoryEventType = "adjust"
	EventWaste   InventoryEventType = "waste"
)

// ExpirySource says where a lot's expiresAt came from.
type ExpirySource string

const (
	ExpiryExact     ExpirySource = "exact"
	ExpiryEstimated ExpirySource = "estimated"
	ExpiryUnknown   ExpirySource = "unknown"
)

// RiskLevel buckets a lot by how soon it expires.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// MealCheckinStatus is the lifecycle state of a meal check-in.
type MealCheckinStatus string

const (
	CheckinPending         MealCheckinStatus = "pending"
	CheckinCompleted       MealCheckinStatus = "completed"
	CheckinNeedsAdjustment MealCheckinStatus = "needs_adjustment"
)

// MealCheckinOutcome is what the household reports happened to a meal.
type MealCheckinOutcome string

const (
	OutcomeMade    MealCheckinOutcome = "made"
	OutcomeSkipped MealCheckinOutcome = "skipped"
	OutcomePartial MealCheckinOutcome = "partial"
)

var validOutcomes = map[MealCheckinOutcome]bool{
	OutcomeMade: true, OutcomeSkipped: true, OutcomePartial: true,
}

// Valid reports whether o is a known outcome.
func (o MealCheckinOutcome) Valid() bool { return validOutcomes[o] }

// RunType distinguishes daily meal runs from weekly purchase runs.
type RunType string

const (
	RunDaily  RunType = "daily"
	RunWeekly RunType = "weekly"
)

// RecommendationPriority ranks weekly purchase recommendations.
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

var validPriorities = map[RecommendationPriority]bool{
	PriorityHigh: true, PriorityMedium: true, PriorityLow: true,
}

// Valid reports whether p is a known priority.
func (p RecommendationPriority) Valid() bool { return validPriorities[p] }

// NormalizePriority maps an arbitrary string to a known priority,
// falling back to medium.
func NormalizePriority(s string) RecommendationPriority {
	p := RecommendationPriority(s)
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// FeedbackSignalType classifies a recommendation feedback signal.
type FeedbackSignalType string

const (
	SignalAccepted FeedbackSignalType = "accepted"
	SignalRejected FeedbackSignalType = "rejected"
	SignalEdited   FeedbackSignalType = "edited"
	SignalIgnored  FeedbackSignalType = "ignored"
	SignalConsumed FeedbackSignalType = "consumed"
	SignalWasted   FeedbackSignalType = "wasted"
)

var validSignals = map[FeedbackSignalType]bool{
	SignalAccepted: true, SignalRejected: true, SignalEdited: true,
	SignalIgnored: true, SignalConsumed: true, SignalWasted: true,
}

// Valid reports whether s is a known signal type.
func (s FeedbackSignalType) Valid() bool { return validSignals[s] }

// DefaultSignalValue is the value recorded when a client omits
// signalValue for the given signal type.
func DefaultSignalValue(s FeedbackSignalType) float64 {
	switch s {
	case SignalAccepted:
		return 1
	case SignalConsumed:
		return 0.75
	case SignalEdited:
		return 0.25
	case SignalIgnored:
		return -0.25
	case SignalRejected:
		return -0.75
	case SignalWasted:
		return -1
	default:
		return 0
	}
}

// ShoppingDraftStatus is the lifecycle state of a shopping draft.
type ShoppingDraftStatus string

const (
	DraftOpen      ShoppingDraftStatus = "draft"
	DraftFinalized ShoppingDraftStatus = "finalized"
)

// ShoppingDraftItemStatus is the per-line state within a draft.
type ShoppingDraftItemStatus string

const (
	DraftItemPlanned   ShoppingDraftItemStatus = "planned"
	DraftItemSkipped   ShoppingDraftItemStatus = "skipped"
	DraftItemPurchased ShoppingDraftItemStatus = "purchased"
)

var validDraftItemStatuses = map[ShoppingDraftItemStatus]bool{
	DraftItemPlanned: true, DraftItemSkipped: true, DraftItemPurchased: true,
}

// Valid reports whether s is a known draft item status.
func (s ShoppingDraftItemStatus) Valid() bool { return validDraftItemStatuses[s] }

// ReviewMode selects how a receipt review reseats quantities.
type ReviewMode string

const (
	ReviewOverwrite ReviewMode = "overwrite"
	ReviewAppend    ReviewMode = "append"
)
