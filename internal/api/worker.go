package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pantryos/backend/internal/core"
)

func (s *Server) handleClaimJob(w http.ResponseWriter, _ *http.Request) {
	claimed, err := s.engine.ClaimNextJob()
	if err != nil {
		writeError(w, err)
		return
	}
	if claimed == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"job": nil})
		return
	}
	writeJSON(w, http.StatusOK, claimed)
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	var sub core.JobResultSubmission
	if !decode(w, r, &sub) {
		return
	}
	outcome, err := s.engine.SubmitJobResult(mux.Vars(r)["jobId"], sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleFailJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Error string `json:"error"`
	}
	if !decode(w, r, &req) {
		return
	}
	job, err := s.engine.FailJob(mux.Vars(r)["jobId"], req.Error)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": job})
}
