package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recall/internal/quiz"
	"github.com/kozaktomas/face-recall/internal/recall"
)

var errSessionNotFound = errors.New("quiz session not found")

// QuizHandler runs quiz sessions.
type QuizHandler struct {
	svc      *recall.Service
	sessions *SessionStore
	logger   *slog.Logger
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(svc *recall.Service, sessions *SessionStore, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{svc: svc, sessions: sessions, logger: logger}
}

// CreateSessionRequest selects the people to quiz.
type CreateSessionRequest struct {
	Mode        string      `json:"mode" validate:"omitempty,oneof=spaced all filtered"`
	Filter      quiz.Filter `json:"filter"`
	Distractors *int        `json:"distractors" validate:"omitempty,gte=0,lte=20"`
	Limit       int         `json:"limit" validate:"gte=0"`
	Seed        *int64      `json:"seed"`
}

func (req CreateSessionRequest) options() (quiz.Options, error) {
	opts := quiz.Options{
		Mode:            quiz.Spaced,
		Filter:          req.Filter,
		DistractorCount: -1,
		Limit:           req.Limit,
		Seed:            req.Seed,
	}
	if req.Mode != "" {
		mode, err := quiz.ParseMode(req.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if req.Distractors != nil {
		opts.DistractorCount = *req.Distractors
	}
	return opts, nil
}

// SessionResponse is a session with its progress.
type SessionResponse struct {
	*quiz.Session
	Answered int           `json:"answered"`
	Total    int           `json:"total"`
	Streak   int           `json:"streak"`
	Next     *quiz.Item    `json:"next,omitempty"`
	Summary  *quiz.Summary `json:"summary,omitempty"`
}

func sessionToResponse(s *quiz.Session) SessionResponse {
	answered, total := s.Progress()
	resp := SessionResponse{
		Session:  s,
		Answered: answered,
		Total:    total,
		Streak:   s.Streak(),
		Next:     s.Next(),
	}
	if s.State == quiz.Complete {
		summary := s.Summary()
		resp.Summary = &summary
	}
	return resp
}

// Create builds a quiz session and keeps it in memory.
func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		respondServiceError(w, r, h.logger, "create quiz", err)
		return
	}
	session, err := h.svc.BuildQuiz(r.Context(), opts)
	if err != nil {
		respondServiceError(w, r, h.logger, "create quiz", err)
		return
	}
	h.sessions.Put(session)
	h.logger.Info("quiz session created",
		"session_id", session.ID,
		"mode", session.Mode.String(),
		"items", len(session.Items))
	respondJSON(w, http.StatusCreated, sessionToResponse(session))
}

func (h *QuizHandler) entry(w http.ResponseWriter, r *http.Request) *QuizEntry {
	e, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, errSessionNotFound.Error())
		return nil
	}
	return e
}

// Get returns a session and its progress.
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	e := h.entry(w, r)
	if e == nil {
		return
	}
	var resp SessionResponse
	e.With(func(s *quiz.Session) error {
		resp = sessionToResponse(s)
		return nil
	})
	respondJSON(w, http.StatusOK, resp)
}

// AnswerRequest is the guess for one item.
type AnswerRequest struct {
	PersonID       string `json:"person_id" validate:"required"`
	GuessPersonID  string `json:"guess_person_id"`
	ResponseTimeMs *int   `json:"response_time_ms" validate:"omitempty,gte=0"`
}

// AnswerResponse is the outcome of one answer plus the session progress.
type AnswerResponse struct {
	quiz.Outcome
	Session SessionResponse `json:"session"`
}

// Answer records a guess, reschedules the person and logs the attempt.
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e := h.entry(w, r)
	if e == nil {
		return
	}

	var resp AnswerResponse
	err := e.With(func(s *quiz.Session) error {
		outcome, err := h.svc.Answer(r.Context(), s, req.PersonID, req.GuessPersonID, req.ResponseTimeMs)
		if err != nil {
			return err
		}
		resp = AnswerResponse{Outcome: outcome, Session: sessionToResponse(s)}
		return nil
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "answer", err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Complete ends a session and returns its summary. Completing twice returns the same summary.
func (h *QuizHandler) Complete(w http.ResponseWriter, r *http.Request) {
	e := h.entry(w, r)
	if e == nil {
		return
	}
	var summary quiz.Summary
	e.With(func(s *quiz.Session) error {
		summary = s.Complete()
		return nil
	})
	respondJSON(w, http.StatusOK, summary)
}
