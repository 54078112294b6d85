package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/services"
)

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.SubjectService.ListSubjects(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, subjects)
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := s.SubjectService.GetSubject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, subject)
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var in services.SubjectInput
	if err := decodeJSON(r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	subject, err := s.SubjectService.CreateSubject(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, subject)
}

func (s *Server) handleEditSubject(w http.ResponseWriter, r *http.Request) {
	var in services.SubjectInput
	if err := decodeJSON(r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	subject, err := s.SubjectService.EditSubject(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, subject)
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.SubjectService.DeleteSubjectCascade(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("subject deleted: id=%s", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportSubject(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ExchangeService.ExportSubject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeAttachment(w, r, exportFilename(doc.Metadata.SubjectName, time.Now()), doc)
}
