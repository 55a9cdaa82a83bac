package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pantryos/backend/internal/core"
)

func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	var req core.UploadRequest
	if !decode(w, r, &req) {
		return
	}
	ticket, err := s.engine.CreateUpload(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.engine.GetReceipt(mux.Vars(r)["receiptUploadId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"receipt": receipt})
}

func (s *Server) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req core.ProcessRequest
	if !decode(w, r, &req) {
		return
	}
	job, err := s.engine.EnqueueJob(mux.Vars(r)["receiptUploadId"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job": job})
}

func (s *Server) handleEnqueueBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Receipts []core.BatchReceiptEntry `json:"receipts"`
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := s.engine.EnqueueBatch(req.Receipts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (s *Server) handleReviewReceipt(w http.ResponseWriter, r *http.Request) {
	var cmd core.ReviewCommand
	if !decode(w, r, &cmd) {
		return
	}
	result, err := s.engine.ReviewReceipt(mux.Vars(r)["receiptUploadId"], cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.engine.GetJob(mux.Vars(r)["jobId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": job})
}

func (s *Server) handleDeadLetters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deadLetters": s.engine.ListDeadLetters(),
	})
}
