package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	clearExisting, err := boolQuery(r, "clearExisting", false)
	if err != nil {
		handleError(w, r, err)
		return
	}
	raw, err := s.readImportBody(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.ExchangeService.ImportDocument(r.Context(), raw, models.ImportOptions{ClearExisting: clearExisting})
	writeImportResult(w, r, result, err)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readImportBody(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.ExchangeService.RestoreBackup(r.Context(), raw)
	writeImportResult(w, r, result, err)
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	clearExisting, err := boolQuery(r, "clearExisting", false)
	if err != nil {
		handleError(w, r, err)
		return
	}
	raw, err := s.readImportBody(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	summary, err := s.ExchangeService.PreviewImport(r.Context(), raw, models.ImportOptions{ClearExisting: clearExisting})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	includeStats, err := boolQuery(r, "includeStats", true)
	if err != nil {
		handleError(w, r, err)
		return
	}
	backup, err := s.ExchangeService.ExportFullBackup(r.Context(), includeStats)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeAttachment(w, r, exportFilename("", time.Now()), backup)
}

func (s *Server) readImportBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if s.MaxImportBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.MaxImportBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewBadRequestError(fmt.Sprintf("import file exceeds %d bytes", tooLarge.Limit))
		}
		return nil, errors.NewBadRequestError(fmt.Sprintf("failed to read request body: %v", err))
	}
	return raw, nil
}

// writeImportResult sends the structured result. Failed imports keep the
// result body but carry the error's status.
func writeImportResult(w http.ResponseWriter, r *http.Request, result *models.ImportResult, err error) {
	if err == nil {
		writeJSON(w, r, http.StatusOK, result)
		return
	}
	if result == nil {
		handleError(w, r, err)
		return
	}
	status := http.StatusInternalServerError
	if appErr, ok := errors.As(err); ok {
		status = appErr.Status
	}
	logger.FromContext(r.Context()).Warn("import failed: %v", err)
	writeJSON(w, r, status, result)
}
