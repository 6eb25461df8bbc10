package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/recall"
)

// PeopleHandler handles person endpoints.
type PeopleHandler struct {
	svc    *recall.Service
	logger *slog.Logger
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(svc *recall.Service, logger *slog.Logger) *PeopleHandler {
	return &PeopleHandler{svc: svc, logger: logger}
}

// PersonSummary is a person in list responses, without embeddings.
type PersonSummary struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"display_name"`
	Tags            []string  `json:"tags,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	SampleCount     int       `json:"sample_count"`
	NeedsReview     bool      `json:"needs_review"`
	DaysUntilReview int       `json:"days_until_review"`
}

func personToSummary(p database.Person, now time.Time) PersonSummary {
	status := recall.StatusOf(p, now)
	return PersonSummary{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		Tags:            p.Tags,
		CreatedAt:       p.CreatedAt,
		SampleCount:     len(p.Samples),
		NeedsReview:     status.NeedsReview && p.HasSamples(),
		DaysUntilReview: status.DaysUntilReview,
	}
}

// List returns every person. The optional tag query parameter filters by tag.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.svc.Store().List(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, "list people", err)
		return
	}

	tag := r.URL.Query().Get("tag")
	now := h.svc.Now()
	response := make([]PersonSummary, 0, len(people))
	for _, p := range people {
		if tag != "" && !p.HasTag(tag) {
			continue
		}
		response = append(response, personToSummary(p, now))
	}
	respondJSON(w, http.StatusOK, response)
}

// Create adds a person.
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recall.PersonInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.AddPerson(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, h.logger, "create person", err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// Get returns a person with samples and review state.
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Store().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, "get person", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Update changes name, notes and tags.
func (h *PeopleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req recall.PersonInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdatePerson(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, r, h.logger, "update person", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Delete removes a person with samples, review state and attempts.
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePerson(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, h.logger, "delete person", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProfileSampleRequest selects the sample shown in quizzes.
type ProfileSampleRequest struct {
	SampleID string `json:"sample_id" validate:"required"`
}

// SetProfileSample designates a person's quiz sample.
func (h *PeopleHandler) SetProfileSample(w http.ResponseWriter, r *http.Request) {
	var req ProfileSampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	personID := chi.URLParam(r, "id")
	if err := h.svc.SetProfileSample(r.Context(), personID, req.SampleID); err != nil {
		respondServiceError(w, r, h.logger, "set profile sample", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"person_id": personID,
		"sample_id": req.SampleID,
	})
}
