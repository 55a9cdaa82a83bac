package core

import "time"

// Engine reads hand out these copies so callers can never mutate
// ledger state through a returned pointer or slice.

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// CloneItems deep-copies a receipt item slice.
func CloneItems(items []ReceiptItem) []ReceiptItem {
	if items == nil {
		return nil
	}
	out := make([]ReceiptItem, len(items))
	for i, it := range items {
		it.UnitPrice = copyFloatPtr(it.UnitPrice)
		out[i] = it
	}
	return out
}

// Clone deep-copies the upload.
func (r *ReceiptUpload) Clone() *ReceiptUpload {
	if r == nil {
		return nil
	}
	out := *r
	out.PurchasedAt = copyTimePtr(r.PurchasedAt)
	out.Items = CloneItems(r.Items)
	return &out
}

// Clone copies the job.
func (j *ReceiptProcessJob) Clone() *ReceiptProcessJob {
	if j == nil {
		return nil
	}
	out := *j
	return &out
}

// Clone deep-copies the lot.
func (l *InventoryLot) Clone() *InventoryLot {
	if l == nil {
		return nil
	}
	out := *l
	out.PurchasedAt = copyTimePtr(l.PurchasedAt)
	out.ExpiresAt = copyTimePtr(l.ExpiresAt)
	out.ExpiryEstimatedAt = copyTimePtr(l.ExpiryEstimatedAt)
	out.ExpiryConfidence = copyFloatPtr(l.ExpiryConfidence)
	return &out
}

// Clone deep-copies the check-in.
func (c *MealCheckin) Clone() *MealCheckin {
	if c == nil {
		return nil
	}
	out := *c
	out.SuggestedItemKeys = append([]string(nil), c.SuggestedItemKeys...)
	out.Lines = append([]CheckinLine(nil), c.Lines...)
	return &out
}

// Clone deep-copies the recommendation.
func (d *DailyRecommendation) Clone() *DailyRecommendation {
	if d == nil {
		return nil
	}
	out := *d
	out.ItemKeys = append([]string(nil), d.ItemKeys...)
	return &out
}

// Clone deep-copies the draft and its items.
func (d *ShoppingDraft) Clone() *ShoppingDraft {
	if d == nil {
		return nil
	}
	out := *d
	out.FinalizedAt = copyTimePtr(d.FinalizedAt)
	out.Items = make([]ShoppingDraftItem, len(d.Items))
	for i, it := range d.Items {
		it.LastUnitPrice = copyFloatPtr(it.LastUnitPrice)
		it.AvgUnitPrice30d = copyFloatPtr(it.AvgUnitPrice30d)
		it.MinUnitPrice90d = copyFloatPtr(it.MinUnitPrice90d)
		it.PriceTrendPct = copyFloatPtr(it.PriceTrendPct)
		out.Items[i] = it
	}
	return &out
}
