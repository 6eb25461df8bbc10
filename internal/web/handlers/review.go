package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recall/internal/recall"
)

// ReviewHandler exposes review schedules.
type ReviewHandler struct {
	svc    *recall.Service
	logger *slog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(svc *recall.Service, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, logger: logger}
}

// Due lists people needing review, most overdue first.
func (h *ReviewHandler) Due(w http.ResponseWriter, r *http.Request) {
	due, err := h.svc.Due(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, "list due reviews", err)
		return
	}
	respondJSON(w, http.StatusOK, due)
}

// Get returns one person's review state with the values derived at request time.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Review(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, "get review", err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Repair rebuilds a person's review state from the attempt log.
func (h *ReviewHandler) Repair(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	if _, err := h.svc.RepairReview(r.Context(), personID); err != nil {
		respondServiceError(w, r, h.logger, "repair review", err)
		return
	}
	status, err := h.svc.Review(r.Context(), personID)
	if err != nil {
		respondServiceError(w, r, h.logger, "get review", err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
