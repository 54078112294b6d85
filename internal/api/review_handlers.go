package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/services"
	"github.com/mnedoszytko/leitner-flashcards/internal/session"
)

type answerRequest struct {
	Correct *bool `json:"correct"`
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.ReviewService.History(r.Context(), r.URL.Query().Get("deckId"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req services.StartRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
	}

	view, err := s.ReviewService.StartSession(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("session started: id=%s, cards=%d", view.SessionID, view.Total)
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.ReviewService.GetSession)
}

func (s *Server) handleSessionHint(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.ReviewService.ShowHint)
}

func (s *Server) handleSessionReveal(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.ReviewService.Reveal)
}

func (s *Server) handleSessionPrevious(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.ReviewService.Previous)
}

func (s *Server) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.ReviewService.Next)
}

func (s *Server) handleSessionSkip(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.ReviewService.Skip)
}

func (s *Server) handleSessionRecord(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.ReviewService.RecordSession)
}

func (s *Server) handleSessionAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Correct == nil {
		handleError(w, r, errors.NewBadRequestError("correct is required"))
		return
	}
	correct := *req.Correct
	s.sessionAction(w, r, func(ctx context.Context, id string) (*session.View, error) {
		return s.ReviewService.AnswerCard(ctx, id, correct)
	})
}

func (s *Server) sessionAction(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*session.View, error)) {
	view, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if view == nil {
			handleError(w, r, err)
			return
		}
		writeError(w, r, err, map[string]any{"session": view})
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}
