package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/services"
)

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	standalone, err := boolQuery(r, "standalone", false)
	if err != nil {
		handleError(w, r, err)
		return
	}
	decks, err := s.DeckService.ListDecks(r.Context(), models.DeckFilter{
		SubjectID:  r.URL.Query().Get("subjectId"),
		Standalone: standalone,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, decks)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.DeckService.GetDeck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deck)
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var in services.DeckInput
	if err := decodeJSON(r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.DeckService.CreateDeck(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, deck)
}

func (s *Server) handleEditDeck(w http.ResponseWriter, r *http.Request) {
	var in services.DeckInput
	if err := decodeJSON(r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.DeckService.EditDeck(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deck)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := s.DeckService.DeleteDeck(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
