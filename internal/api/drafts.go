package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pantryos/backend/internal/core"
)

func (s *Server) handleGenerateDraft(w http.ResponseWriter, r *http.Request) {
	var opts core.DraftOptions
	if r.ContentLength > 0 && !decode(w, r, &opts) {
		return
	}
	draft, err := s.engine.GenerateShoppingDraft(mux.Vars(r)["householdId"], opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"draft": draft})
}

func (s *Server) handleLatestDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.engine.LatestDraft(mux.Vars(r)["householdId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"draft": draft})
}

func (s *Server) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	var cmd core.DraftPatchCommand
	if !decode(w, r, &cmd) {
		return
	}
	result, err := s.engine.PatchDraftItems(mux.Vars(r)["draftId"], cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFinalizeDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"householdId,omitempty"`
	}
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}
	draft, err := s.engine.FinalizeDraft(mux.Vars(r)["draftId"], req.HouseholdID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"draft": draft})
}
