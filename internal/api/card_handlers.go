package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	box, err := intParam(r.URL.Query().Get("box"), "box")
	if err != nil {
		handleError(w, r, err)
		return
	}
	scope := scopeFromQuery(r)
	cards, err := s.CardService.ListCards(r.Context(), models.CardFilter{DeckID: scope.DeckID, SubjectID: scope.SubjectID, Box: box})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.CardService.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in models.Flashcard
	if err := decodeJSON(r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	card, err := s.CardService.CreateCard(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	// Progress fields are not part of CardEdit, so they are rejected here.
	var edit models.CardEdit
	if err := decodeJSONStrict(r, &edit); err != nil {
		handleError(w, r, err)
		return
	}
	card, err := s.CardService.UpdateCard(r.Context(), chi.URLParam(r, "id"), edit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.CardService.DeleteCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
