package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/expiry"
	"github.com/pantryos/backend/internal/idempotency"
	"github.com/pantryos/backend/internal/ids"
	"github.com/pantryos/backend/internal/pricing"
)

// applyReceiptItems merges receipt items into the ledger: one lot per
// (itemKey, unit, category) cluster absorbs the quantity, one add event
// per item records it. Caller holds mu. Returns events created.
func (e *Engine) applyReceiptItems(h *household, items []core.ReceiptItem, purchasedAt *time.Time, source string) int {
	created := 0
	for _, item := range items {
		lot := h.findClusterLot(item.ItemKey, item.Unit, item.Category)
		now := e.now()
		if lot == nil {
			lot = e.newLot(h, item.ItemKey, item.NormalizedName, item.Unit, item.Category, purchasedAt, nil)
		}
		lot.QuantityRemaining += item.Quantity
		lot.ItemName = item.NormalizedName
		if purchasedAt != nil {
			t := *purchasedAt
			lot.PurchasedAt = &t
		}
		lot.UpdatedAt = now

		e.appendEvent(h, lot, core.EventAdd, item.Quantity, source,
			fmt.Sprintf("receipt item: %s", item.RawName))
		created++

		if item.UnitPrice != nil {
			h.recordPrice(item.ItemKey, *item.UnitPrice, purchasedAt, now)
		}
	}
	return created
}

// findClusterLot locates the receipt-intake lot for a cluster. Caller
// holds mu.
func (h *household) findClusterLot(itemKey string, unit core.Unit, category core.ItemCategory) *core.InventoryLot {
	for _, lot := range h.lots {
		if lot.ItemKey == itemKey && lot.Unit == unit && lot.Category == category {
			return lot
		}
	}
	return nil
}

// newLot opens a lot and estimates its expiry unless an exact date is
// supplied. Caller holds mu.
func (e *Engine) newLot(h *household, itemKey, itemName string, unit core.Unit, category core.ItemCategory, purchasedAt, exactExpiry *time.Time) *core.InventoryLot {
	now := e.now()
	lot := &core.InventoryLot{
		LotID:       e.ids.NewID(ids.Lot),
		HouseholdID: h.id,
		ItemKey:     itemKey,
		ItemName:    itemName,
		Unit:        unit,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if purchasedAt != nil {
		t := *purchasedAt
		lot.PurchasedAt = &t
	}
	if exactExpiry != nil {
		t := *exactExpiry
		one := 1.0
		lot.ExpiresAt = &t
		lot.ExpirySource = core.ExpiryExact
		lot.ExpiryConfidence = &one
	} else {
		est := expiry.EstimateLot(category, purchasedAt, now)
		lot.ExpiresAt = &est.ExpiresAt
		lot.ExpiryEstimatedAt = &est.EstimatedAt
		lot.ExpirySource = est.Source
		lot.ExpiryConfidence = &est.Confidence
	}
	h.lots = append(h.lots, lot)
	e.bus.Emit(events.TypeLotAdded, "engine", h.id, map[string]interface{}{
		"lotId":    lot.LotID,
		"itemKey":  itemKey,
		"unit":     string(unit),
		"category": string(category),
	})
	return lot
}

// appendEvent records one quantity movement. Events are append-only and
// their timestamps are monotonic per household. Caller holds mu.
func (e *Engine) appendEvent(h *household, lot *core.InventoryLot, eventType core.InventoryEventType, quantity float64, source, reason string) *core.InventoryEvent {
	ev := &core.InventoryEvent{
		EventID:     e.ids.NewID(ids.Event),
		HouseholdID: h.id,
		LotID:       lot.LotID,
		EventType:   eventType,
		Quantity:    quantity,
		Unit:        lot.Unit,
		Source:      source,
		Reason:      reason,
		CreatedAt:   h.stamp(e.now()),
	}
	h.events = append(h.events, ev)
	if e.metrics != nil {
		e.metrics.LedgerEvent(string(eventType), 1)
	}
	e.bus.Emit(events.TypeEventAppended, "engine", h.id, map[string]interface{}{
		"eventId":   ev.EventID,
		"lotId":     lot.LotID,
		"eventType": string(eventType),
		"quantity":  quantity,
		"source":    source,
	})
	return ev
}

// recordPrice appends one observed unit price for an item. The receipt
// purchase date anchors the point when known; otherwise observation
// time does.
func (h *household) recordPrice(itemKey string, unitPrice float64, purchasedAt *time.Time, now time.Time) {
	at := now
	if purchasedAt != nil {
		at = *purchasedAt
	}
	h.prices[itemKey] = append(h.prices[itemKey], pricing.Point{At: at, UnitPrice: unitPrice})
}

// ReviewReceipt corrects a parsed receipt's items. Append mode adds the
// full quantities; overwrite mode replaces the stored items and re-seats
// the ledger by delta per (itemKey, unit, category): a positive delta is
// an add event, a negative one a subtractive adjust event, both with
// source receipt_review.
func (e *Engine) ReviewReceipt(receiptUploadID string, cmd core.ReviewCommand) (*core.ReviewResult, error) {
	if cmd.Mode != core.ReviewOverwrite && cmd.Mode != core.ReviewAppend {
		return nil, core.Invalidf("mode", "mode must be overwrite or append")
	}
	if len(cmd.Items) == 0 {
		return nil, core.Invalidf("items", "at least one item is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	upload, ok := e.receipts[receiptUploadID]
	if !ok {
		return nil, core.NotFound("receipt upload %s", receiptUploadID)
	}
	if cmd.HouseholdID != "" && cmd.HouseholdID != upload.HouseholdID {
		return nil, core.HouseholdMismatch()
	}

	if prior, ok := e.idem.Get(idempotency.ScopeReceiptReview, cmd.IdempotencyKey); ok {
		res := prior.(core.ReviewResult)
		return &core.ReviewResult{Applied: false, EventsCreated: 0, Receipt: res.Receipt.Clone()}, nil
	}

	h := e.household(upload.HouseholdID)
	items := normalizeItems(cmd.Items)
	var eventsCreated int

	switch cmd.Mode {
	case core.ReviewAppend:
		eventsCreated = e.applyReceiptItems(h, items, upload.PurchasedAt, core.SourceReceiptReview)
		upload.Items = append(upload.Items, items...)
	case core.ReviewOverwrite:
		eventsCreated = e.reseatByDelta(h, upload.Items, items, upload.PurchasedAt)
		upload.Items = items
	}
	upload.UpdatedAt = e.now()

	result := core.ReviewResult{Applied: true, EventsCreated: eventsCreated, Receipt: upload.Clone()}
	e.idem.Put(idempotency.ScopeReceiptReview, cmd.IdempotencyKey, result)
	out := result
	out.Receipt = result.Receipt.Clone()
	return &out, nil
}

type clusterKey struct {
	itemKey  string
	unit     core.Unit
	category core.ItemCategory
}

// reseatByDelta applies the net quantity change per cluster between the
// prior and the corrected item lists. Caller holds mu.
func (e *Engine) reseatByDelta(h *household, prior, next []core.ReceiptItem, purchasedAt *time.Time) int {
	type delta struct {
		quantity float64
		item     core.ReceiptItem
	}
	deltas := make(map[clusterKey]*delta)
	var order []clusterKey

	upsert := func(it core.ReceiptItem, sign float64) {
		key := clusterKey{it.ItemKey, it.Unit, it.Category}
		d, ok := deltas[key]
		if !ok {
			d = &delta{item: it}
			deltas[key] = d
			order = append(order, key)
		}
		d.quantity += sign * it.Quantity
		if sign > 0 {
			d.item = it // corrected entry wins the name
		}
	}
	for _, it := range prior {
		upsert(it, -1)
	}
	for _, it := range next {
		upsert(it, +1)
	}

	created := 0
	for _, key := range order {
		d := deltas[key]
		switch {
		case d.quantity > 0:
			add := d.item
			add.Quantity = d.quantity
			created += e.applyReceiptItems(h, []core.ReceiptItem{add}, purchasedAt, core.SourceReceiptReview)
		case d.quantity < 0:
			lot := h.findClusterLot(key.itemKey, key.unit, key.category)
			if lot == nil {
				continue // nothing to subtract from
			}
			sub := -d.quantity
			if sub > lot.QuantityRemaining {
				sub = lot.QuantityRemaining // never drive a lot negative
			}
			if sub == 0 {
				continue
			}
			lot.QuantityRemaining -= sub
			lot.UpdatedAt = e.now()
			e.appendEvent(h, lot, core.EventAdjust, sub, core.SourceReceiptReview,
				fmt.Sprintf("receipt review correction: %s", d.item.RawName))
			created++
		}
	}
	return created
}

// AddManualItems records out-of-receipt stock. Every call opens fresh
// lots, never merging clusters, so manual additions with different
// purchase dates stay distinct for FEFO.
func (e *Engine) AddManualItems(householdID string, cmd core.ManualEntryCommand) (*core.ManualEntryResult, error) {
	if len(cmd.Items) == 0 {
		return nil, core.Invalidf("items", "at least one item is required")
	}
	for i, it := range cmd.Items {
		if it.Name == "" {
			return nil, core.Invalidf(fmt.Sprintf("items[%d].name", i), "required")
		}
		if it.Quantity <= 0 {
			return nil, core.Invalidf(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if prior, ok := e.idem.Get(idempotency.ScopeManualEntry, cmd.IdempotencyKey); ok {
		res := prior.(core.ManualEntryResult)
		return &core.ManualEntryResult{Applied: false, Lots: cloneLots(res.Lots), EventsCreated: 0}, nil
	}

	h := e.household(householdID)
	lots := make([]core.InventoryLot, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		itemKey := it.ItemKey
		if itemKey == "" {
			itemKey = slugify(it.Name)
		}
		unit := core.NormalizeUnit(string(it.Unit))
		category := core.NormalizeCategory(string(it.Category))

		lot := e.newLot(h, itemKey, it.Name, unit, category, cmd.PurchasedAt, it.ExpiresAt)
		lot.QuantityRemaining = it.Quantity
		reason := "manual entry"
		if cmd.Notes != "" {
			reason = fmt.Sprintf("manual entry: %s", cmd.Notes)
		}
		e.appendEvent(h, lot, core.EventAdd, it.Quantity, core.SourceManual, reason)

		if it.UnitPrice != nil {
			h.recordPrice(itemKey, *it.UnitPrice, cmd.PurchasedAt, e.now())
		}
		lots = append(lots, *lot.Clone())
	}

	result := core.ManualEntryResult{Applied: true, Lots: lots, EventsCreated: len(lots)}
	e.idem.Put(idempotency.ScopeManualEntry, cmd.IdempotencyKey, result)
	return &core.ManualEntryResult{Applied: true, Lots: cloneLots(lots), EventsCreated: len(lots)}, nil
}

// OverrideLotExpiry pins a lot's expiry to an exact date. Expiry is
// metadata, not a quantity movement, so no inventory event is emitted.
func (e *Engine) OverrideLotExpiry(householdID, lotID string, cmd core.ExpiryOverrideCommand) (*core.InventoryLot, error) {
	if cmd.ExpiresAt.IsZero() {
		return nil, core.Invalidf("expiresAt", "required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	var lot *core.InventoryLot
	for _, l := range h.lots {
		if l.LotID == lotID {
			lot = l
			break
		}
	}
	if lot == nil {
		return nil, core.NotFound("lot %s", lotID)
	}

	t := cmd.ExpiresAt
	one := 1.0
	lot.ExpiresAt = &t
	lot.ExpiryEstimatedAt = nil
	lot.ExpirySource = core.ExpiryExact
	lot.ExpiryConfidence = &one
	lot.UpdatedAt = e.now()
	return lot.Clone(), nil
}

// consumeFEFO depletes stock for one check-in line, oldest expiry
// first. Category is ignored so planner lines without one still
// deplete. Returns events created and whether the full quantity was
// covered. Caller holds mu.
func (e *Engine) consumeFEFO(h *household, itemKey string, unit core.Unit, quantity float64, eventType core.InventoryEventType, source, reason string) (int, bool) {
	candidates := make([]*core.InventoryLot, 0, 4)
	for _, lot := range h.lots {
		if lot.ItemKey == itemKey && lot.Unit == unit && lot.QuantityRemaining > 0 {
			candidates = append(candidates, lot)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := compareTimePtr(candidates[i].ExpiresAt, candidates[j].ExpiresAt); c != 0 {
			return c < 0
		}
		if c := compareTimePtr(candidates[i].PurchasedAt, candidates[j].PurchasedAt); c != 0 {
			return c < 0
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	created := 0
	remaining := quantity
	touched := make(map[*core.InventoryLot]bool)
	var last *core.InventoryLot
	for _, lot := range candidates {
		if remaining <= 0 {
			break
		}
		take := lot.QuantityRemaining
		if take > remaining {
			take = remaining
		}
		lot.QuantityRemaining -= take
		lot.UpdatedAt = e.now()
		remaining -= take
		last = lot
		touched[lot] = true
		e.appendEvent(h, lot, eventType, take, source, reason)
		created++
	}

	covered := remaining <= 0
	if remaining > 0 && last != nil {
		// Short: record the deficit against the last touched lot,
		// clamped at zero, so the ledger shows what was asked for.
		e.appendEvent(h, last, eventType, remaining, source, reason+" (deficit)")
		created++
	}
	h.dropConsumedLots(touched)
	return created, covered
}

// dropConsumedLots removes lots a check-in fully exhausted from the
// active list. Lots zeroed any other way stay; their events remain
// either way, the ledger history is append-only.
func (h *household) dropConsumedLots(touched map[*core.InventoryLot]bool) {
	kept := h.lots[:0]
	for _, lot := range h.lots {
		if touched[lot] && lot.QuantityRemaining <= 0 {
			continue
		}
		kept = append(kept, lot)
	}
	h.lots = kept
}

// compareTimePtr orders times with nil sorted last (missing expiry or
// purchase date means "deplete after anything dated").
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}

func cloneLots(lots []core.InventoryLot) []core.InventoryLot {
	out := make([]core.InventoryLot, len(lots))
	for i := range lots {
		out[i] = *lots[i].Clone()
	}
	return out
}

// ExpiryRisk ranks a household's expiring lots, soonest first, and
// notifies on newly critical ones.
func (e *Engine) ExpiryRisk(householdID string) *core.ExpiryRiskReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	now := e.now()
	report := &core.ExpiryRiskReport{
		HouseholdID: householdID,
		AsOf:        now,
		Counts:      make(map[core.RiskLevel]int),
	}
	for _, lot := range h.lots {
		if lot.ExpiresAt == nil || lot.QuantityRemaining <= 0 {
			continue
		}
		days := expiry.DaysUntil(*lot.ExpiresAt, now)
		level := expiry.Risk(days)
		report.Entries = append(report.Entries, core.ExpiryRiskEntry{
			Lot:             *lot.Clone(),
			DaysUntilExpiry: days,
			RiskLevel:       level,
		})
		report.Counts[level]++
		if level == core.RiskCritical {
			e.bus.Emit(events.TypeExpiryCritical, "engine", householdID, map[string]interface{}{
				"lotId":           lot.LotID,
				"itemKey":         lot.ItemKey,
				"daysUntilExpiry": days,
			})
		}
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		return report.Entries[i].DaysUntilExpiry < report.Entries[j].DaysUntilExpiry
	})
	return report
}
