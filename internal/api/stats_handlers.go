package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.ReviewService.DueCards(r.Context(), scopeFromQuery(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.StatsService.GetStatistics(r.Context(), scopeFromQuery(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleBoxBreakdown(w http.ResponseWriter, r *http.Request) {
	box, err := intParam(chi.URLParam(r, "box"), "box")
	if err != nil {
		handleError(w, r, err)
		return
	}
	breakdown, err := s.StatsService.GetBoxBreakdown(r.Context(), box)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, breakdown)
}
