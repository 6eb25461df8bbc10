package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recall/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	peopleHandler := handlers.NewPeopleHandler(s.svc, s.logger)
	samplesHandler := handlers.NewSamplesHandler(s.svc, s.logger)
	matchHandler := handlers.NewMatchHandler(s.svc, s.logger)
	reviewHandler := handlers.NewReviewHandler(s.svc, s.logger)
	quizHandler := handlers.NewQuizHandler(s.svc, s.sessions, s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// People
		r.Get("/people", peopleHandler.List)
		r.Post("/people", peopleHandler.Create)
		r.Get("/people/{id}", peopleHandler.Get)
		r.Put("/people/{id}", peopleHandler.Update)
		r.Delete("/people/{id}", peopleHandler.Delete)
		r.Put("/people/{id}/profile-sample", peopleHandler.SetProfileSample)
		r.Post("/people/{id}/samples", samplesHandler.AddToPerson)
		r.Get("/people/{id}/review", reviewHandler.Get)
		r.Post("/people/{id}/review/repair", reviewHandler.Repair)

		// Samples
		r.Post("/samples", samplesHandler.AddUnassigned)
		r.Get("/samples/unassigned", samplesHandler.ListUnassigned)
		r.Post("/samples/{id}/assign", samplesHandler.Assign)

		// Matching
		r.Post("/match", matchHandler.Match)

		// Review
		r.Get("/review/due", reviewHandler.Due)

		// Quiz
		r.Post("/quiz/sessions", quizHandler.Create)
		r.Get("/quiz/sessions/{id}", quizHandler.Get)
		r.Post("/quiz/sessions/{id}/answers", quizHandler.Answer)
		r.Post("/quiz/sessions/{id}/complete", quizHandler.Complete)
	})
}
