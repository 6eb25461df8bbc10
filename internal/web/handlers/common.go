package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
	"github.com/kozaktomas/face-recall/internal/quiz"
	"github.com/kozaktomas/face-recall/internal/recall"
	"github.com/kozaktomas/face-recall/internal/srs"
	"github.com/kozaktomas/face-recall/internal/vector"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxBodyBytes bounds request bodies; a 4096-dim embedding in JSON stays well below it.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into dst and validates its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid field %s: %s", verrs[0].Field(), verrs[0].Tag()))
			return false
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, quiz.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, recall.ErrDuplicateName),
		errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrSessionComplete):
		return http.StatusConflict
	case errors.Is(err, vector.ErrDimensionMismatch),
		errors.Is(err, recall.ErrEmptyEmbedding),
		errors.Is(err, recall.ErrEmptyName),
		errors.Is(err, facematch.ErrInvalidThreshold),
		errors.Is(err, quiz.ErrInvalidMode),
		errors.Is(err, srs.ErrPersonMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs unexpected failures and sends the mapped status.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", "path", sanitizeForLog(r.URL.Path), "error", err)
		respondError(w, status, op+" failed")
		return
	}
	respondError(w, status, err.Error())
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
