package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/recall"
)

// MatchHandler handles identification requests.
type MatchHandler struct {
	svc    *recall.Service
	logger *slog.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(svc *recall.Service, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{svc: svc, logger: logger}
}

// MatchRequest is a query embedding. With Assign set, an accepted match is
// stored as a new sample of the best person.
type MatchRequest struct {
	SampleRequest
	Assign bool `json:"assign"`
}

// MatchResponse is the decision plus the stored sample when one was committed.
type MatchResponse struct {
	facematch.MatchResult
	Sample *database.FaceSample `json:"sample,omitempty"`
}

// Match scores the embedding against every known person.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !req.Assign {
		result, err := h.svc.Match(r.Context(), req.Embedding)
		if err != nil {
			respondServiceError(w, r, h.logger, "match", err)
			return
		}
		respondJSON(w, http.StatusOK, MatchResponse{MatchResult: result})
		return
	}

	result, sample, err := h.svc.MatchAndAssign(r.Context(), req.input(""))
	if err != nil {
		respondServiceError(w, r, h.logger, "match", err)
		return
	}
	if sample != nil {
		h.logger.Info("match committed",
			"person_id", sample.PersonID,
			"sample_id", sample.ID,
			"score", result.BestScore)
	}
	respondJSON(w, http.StatusOK, MatchResponse{MatchResult: result, Sample: sample})
}
