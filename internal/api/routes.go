package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(s.corsMiddleware())

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/due", s.handleDueCards)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/boxes/{box}", s.handleBoxBreakdown)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleSessionHistory)
			r.Post("/", s.handleStartSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/hint", s.handleSessionHint)
			r.Post("/{id}/reveal", s.handleSessionReveal)
			r.Post("/{id}/answer", s.handleSessionAnswer)
			r.Post("/{id}/previous", s.handleSessionPrevious)
			r.Post("/{id}/next", s.handleSessionNext)
			r.Post("/{id}/skip", s.handleSessionSkip)
			r.Post("/{id}/record", s.handleSessionRecord)
		})

		r.Route("/subjects", func(r chi.Router) {
			r.Get("/", s.handleListSubjects)
			r.Post("/", s.handleCreateSubject)
			r.Get("/{id}", s.handleGetSubject)
			r.Put("/{id}", s.handleEditSubject)
			r.Delete("/{id}", s.handleDeleteSubject)
			r.Get("/{id}/export", s.handleExportSubject)
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", s.handleListDecks)
			r.Post("/", s.handleCreateDeck)
			r.Get("/{id}", s.handleGetDeck)
			r.Put("/{id}", s.handleEditDeck)
			r.Delete("/{id}", s.handleDeleteDeck)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleCreateCard)
			r.Get("/{id}", s.handleGetCard)
			r.Patch("/{id}", s.handleUpdateCard)
			r.Delete("/{id}", s.handleDeleteCard)
		})

		r.Post("/import", s.handleImport)
		r.Post("/import/preview", s.handleImportPreview)
		r.Post("/restore", s.handleRestore)
		r.Get("/export", s.handleExport)
	})

	return r
}
