package api

import (
	"net/http"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
)

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, nil)
}

// writeError sends the error body plus any extra top-level fields.
func writeError(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	log := logger.FromContext(r.Context())

	appErr, ok := errors.As(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	body := map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, r, appErr.Status, body)
}
