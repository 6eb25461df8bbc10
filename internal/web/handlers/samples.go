package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/recall"
)

// SamplesHandler handles face sample endpoints.
type SamplesHandler struct {
	svc    *recall.Service
	logger *slog.Logger
}

// NewSamplesHandler creates a new samples handler.
func NewSamplesHandler(svc *recall.Service, logger *slog.Logger) *SamplesHandler {
	return &SamplesHandler{svc: svc, logger: logger}
}

// SampleRequest is a captured face embedding.
type SampleRequest struct {
	Embedding     []float32 `json:"embedding" validate:"required,min=1,max=4096"`
	CapturedAt    time.Time `json:"captured_at"`
	SourceContext string    `json:"source_context" validate:"max=500"`
}

func (req SampleRequest) input(personID string) recall.SampleInput {
	return recall.SampleInput{
		PersonID:      personID,
		Embedding:     req.Embedding,
		CapturedAt:    req.CapturedAt,
		SourceContext: req.SourceContext,
	}
}

// AddToPerson stores a sample owned by the person in the URL.
func (h *SamplesHandler) AddToPerson(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, chi.URLParam(r, "id"))
}

// AddUnassigned stores a sample pending labeling.
func (h *SamplesHandler) AddUnassigned(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, "")
}

func (h *SamplesHandler) add(w http.ResponseWriter, r *http.Request, personID string) {
	var req SampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sample, err := h.svc.AddSample(r.Context(), req.input(personID))
	if err != nil {
		respondServiceError(w, r, h.logger, "add sample", err)
		return
	}
	respondJSON(w, http.StatusCreated, sample)
}

// ListUnassigned returns samples not yet labeled.
func (h *SamplesHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	samples, err := h.svc.Store().ListUnassigned(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, "list unassigned samples", err)
		return
	}
	if samples == nil {
		samples = []database.FaceSample{}
	}
	respondJSON(w, http.StatusOK, samples)
}

// AssignRequest labels a sample.
type AssignRequest struct {
	PersonID string `json:"person_id" validate:"required"`
}

// Assign labels a sample with its person.
func (h *SamplesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sampleID := chi.URLParam(r, "id")
	if err := h.svc.AssignSample(r.Context(), sampleID, req.PersonID); err != nil {
		respondServiceError(w, r, h.logger, "assign sample", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"sample_id": sampleID,
		"person_id": req.PersonID,
	})
}
