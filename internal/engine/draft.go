package engine

import (
	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/idempotency"
	"github.com/pantryos/backend/internal/ids"
	"github.com/pantryos/backend/internal/pricing"
)

// GenerateShoppingDraft projects the latest weekly run for the week
// into a shopping draft with price intelligence per line. A
// non-finalized draft for the same week is replaced so at most one
// stays open; finalized drafts are history and stay untouched.
func (e *Engine) GenerateShoppingDraft(householdID string, opts core.DraftOptions) (*core.ShoppingDraft, error) {
	weekOf := e.weekOf(opts.WeekOf)

	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	run := h.runForWeek(weekOf)
	if run == nil {
		return nil, core.NotFound("no weekly recommendation run for week %s", weekOf)
	}

	now := e.now()
	draft := &core.ShoppingDraft{
		DraftID:     e.ids.NewID(ids.Draft),
		HouseholdID: householdID,
		WeekOf:      weekOf,
		Status:      core.DraftOpen,
		SourceRunID: run.RunID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, rec := range h.weekly[run.RunID] {
		item := core.ShoppingDraftItem{
			DraftItemID: e.ids.NewID(ids.DraftItem),
			ItemKey:     rec.ItemKey,
			ItemName:    rec.ItemName,
			Quantity:    rec.Quantity,
			Unit:        rec.Unit,
			Category:    rec.Category,
			Priority:    rec.Priority,
			Score:       rec.Score,
			ItemStatus:  core.DraftItemPlanned,
		}
		ins := pricing.Compute(h.prices[rec.ItemKey], now)
		item.LastUnitPrice = ins.LastUnitPrice
		item.AvgUnitPrice30d = ins.AvgUnitPrice30d
		item.MinUnitPrice90d = ins.MinUnitPrice90d
		item.PriceTrendPct = ins.PriceTrendPct
		item.PriceAlert = ins.PriceAlert
		draft.Items = append(draft.Items, item)
	}

	kept := h.drafts[:0]
	for _, d := range h.drafts {
		if d.WeekOf == weekOf && d.Status != core.DraftFinalized {
			continue
		}
		kept = append(kept, d)
	}
	h.drafts = append(kept, draft)

	if e.metrics != nil {
		e.metrics.DraftsGenerated.Inc()
	}
	return draft.Clone(), nil
}

// LatestDraft returns the household's most recent draft.
func (e *Engine) LatestDraft(householdID string) (*core.ShoppingDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.household(householdID)
	if len(h.drafts) == 0 {
		return nil, core.NotFound("no shopping drafts for household %s", householdID)
	}
	return h.drafts[len(h.drafts)-1].Clone(), nil
}

// PatchDraftItems applies line updates to a draft. Finalized drafts
// accept the call but change nothing; a replayed idempotency key (or an
// identical payload when no key is given) returns the prior snapshot
// with updated=false.
func (e *Engine) PatchDraftItems(draftID string, cmd core.DraftPatchCommand) (*core.DraftPatchResult, error) {
	if len(cmd.Items) == 0 {
		return nil, core.Invalidf("items", "at least one item patch is required")
	}
	for i, p := range cmd.Items {
		if p.DraftItemID == "" {
			return nil, core.Invalidf("items", "items[%d].draftItemId is required", i)
		}
		if p.ItemStatus != nil && !p.ItemStatus.Valid() {
			return nil, core.Invalidf("items", "items[%d].itemStatus %q is unknown", i, *p.ItemStatus)
		}
		if p.Quantity != nil && *p.Quantity <= 0 {
			return nil, core.Invalidf("items", "items[%d].quantity must be positive", i)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	draft, _, err := e.findDraft(draftID, cmd.HouseholdID)
	if err != nil {
		return nil, err
	}

	if prior, ok := e.idem.Get(idempotency.ScopeShoppingPatch, cmd.IdempotencyKey); ok {
		if res, ok := prior.(*core.DraftPatchResult); ok {
			return &core.DraftPatchResult{Updated: false, Draft: res.Draft.Clone()}, nil
		}
	}

	if draft.Status == core.DraftFinalized {
		return &core.DraftPatchResult{Updated: false, Draft: draft.Clone()}, nil
	}
	if cmd.IdempotencyKey == "" && patchIsNoop(draft, cmd.Items) {
		return &core.DraftPatchResult{Updated: false, Draft: draft.Clone()}, nil
	}

	for _, p := range cmd.Items {
		for i := range draft.Items {
			if draft.Items[i].DraftItemID != p.DraftItemID {
				continue
			}
			if p.ItemStatus != nil {
				draft.Items[i].ItemStatus = *p.ItemStatus
			}
			if p.Quantity != nil {
				draft.Items[i].Quantity = *p.Quantity
			}
			if p.Notes != nil {
				draft.Items[i].Notes = *p.Notes
			}
		}
	}
	draft.UpdatedAt = e.now()

	result := &core.DraftPatchResult{Updated: true, Draft: draft.Clone()}
	e.idem.Put(idempotency.ScopeShoppingPatch, cmd.IdempotencyKey, result)
	return &core.DraftPatchResult{Updated: true, Draft: draft.Clone()}, nil
}

// FinalizeDraft freezes a draft; it is immutable afterwards.
func (e *Engine) FinalizeDraft(draftID string, householdID string) (*core.ShoppingDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft, h, err := e.findDraft(draftID, householdID)
	if err != nil {
		return nil, err
	}
	if draft.Status == core.DraftFinalized {
		return draft.Clone(), nil
	}

	now := e.now()
	draft.Status = core.DraftFinalized
	draft.UpdatedAt = now
	draft.FinalizedAt = &now

	if e.metrics != nil {
		e.metrics.DraftsFinalized.Inc()
	}
	e.bus.Emit(events.TypeDraftFinalized, "engine", h.id, map[string]interface{}{
		"draft_id": draft.DraftID,
		"week_of":  draft.WeekOf,
		"items":    len(draft.Items),
	})
	return draft.Clone(), nil
}

// patchIsNoop reports whether every patched field already carries the
// requested value, the keyless replay heuristic. Caller holds mu.
func patchIsNoop(draft *core.ShoppingDraft, patches []core.DraftItemPatch) bool {
	for _, p := range patches {
		found := false
		for i := range draft.Items {
			if draft.Items[i].DraftItemID != p.DraftItemID {
				continue
			}
			found = true
			if p.ItemStatus != nil && draft.Items[i].ItemStatus != *p.ItemStatus {
				return false
			}
			if p.Quantity != nil && draft.Items[i].Quantity != *p.Quantity {
				return false
			}
			if p.Notes != nil && draft.Items[i].Notes != *p.Notes {
				return false
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// findDraft resolves a draft and enforces household ownership. Caller
// holds mu.
func (e *Engine) findDraft(draftID, householdID string) (*core.ShoppingDraft, *household, error) {
	for _, h := range e.households {
		for _, d := range h.drafts {
			if d.DraftID == draftID {
				if householdID != "" && householdID != d.HouseholdID {
					return nil, nil, core.HouseholdMismatch()
				}
				return d, h, nil
			}
		}
	}
	return nil, nil, core.NotFound("shopping draft %s", draftID)
}
