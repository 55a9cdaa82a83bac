package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pantryos/backend/internal/core"
)

func (s *Server) handleLatestDaily(w http.ResponseWriter, r *http.Request) {
	plan, err := s.engine.LatestDaily(mux.Vars(r)["householdId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGenerateDaily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetDate string `json:"targetDate,omitempty"`
	}
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}
	plan, err := s.engine.GenerateDaily(r.Context(), mux.Vars(r)["householdId"], req.TargetDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleLatestWeekly(w http.ResponseWriter, r *http.Request) {
	plan, err := s.engine.LatestWeekly(mux.Vars(r)["householdId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGenerateWeekly(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekOf string `json:"weekOf,omitempty"`
	}
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}
	plan, err := s.engine.GenerateWeekly(r.Context(), mux.Vars(r)["householdId"], req.WeekOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var sub core.FeedbackSubmission
	if !decode(w, r, &sub) {
		return
	}
	fb, err := s.engine.SubmitFeedback(mux.Vars(r)["recommendationId"], sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"feedback": fb})
}
