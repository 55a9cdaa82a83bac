package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pantryos/backend/internal/core"
)

func (s *Server) handlePendingCheckins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"checkins": s.engine.ListPendingCheckins(mux.Vars(r)["householdId"]),
	})
}

func (s *Server) handleSubmitCheckin(w http.ResponseWriter, r *http.Request) {
	var sub core.CheckinSubmission
	if !decode(w, r, &sub) {
		return
	}
	result, err := s.engine.SubmitMealCheckin(mux.Vars(r)["checkinId"], sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
