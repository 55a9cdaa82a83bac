package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pantryos/backend/internal/core"
)

func (s *Server) handleInventorySnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.InventorySnapshot(mux.Vars(r)["householdId"]))
}

func (s *Server) handleManualItems(w http.ResponseWriter, r *http.Request) {
	var cmd core.ManualEntryCommand
	if !decode(w, r, &cmd) {
		return
	}
	result, err := s.engine.AddManualItems(mux.Vars(r)["householdId"], cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleExpiryOverride(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var cmd core.ExpiryOverrideCommand
	if !decode(w, r, &cmd) {
		return
	}
	lot, err := s.engine.OverrideLotExpiry(vars["householdId"], vars["lotId"], cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lot": lot})
}

func (s *Server) handleExpiryRisk(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ExpiryRisk(mux.Vars(r)["householdId"]))
}
