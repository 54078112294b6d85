package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gosimple/slug"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response: %v", err)
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	return decodeBody(json.NewDecoder(r.Body), dst)
}

// decodeJSONStrict is decodeJSON but rejects fields dst does not declare.
func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return decodeBody(dec, dst)
}

func decodeBody(dec *json.Decoder, dst any) error {
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.NewBadRequestError("request body is empty")
		}
		return errors.NewBadRequestError(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

func scopeFromQuery(r *http.Request) models.Scope {
	q := r.URL.Query()
	return models.Scope{DeckID: q.Get("deckId"), SubjectID: q.Get("subjectId")}
}

// boolQuery parses an optional boolean query parameter.
func boolQuery(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.NewBadRequestError(fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return v, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewBadRequestError(fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return v, nil
}

// exportFilename names a download: leitner-<subject slug>-<day>.json, or
// leitner-backup-<day>.json for a full backup.
func exportFilename(subjectName string, now time.Time) string {
	day := flashcard.Today(now)
	if subjectName == "" {
		return fmt.Sprintf("leitner-backup-%s.json", day)
	}
	name := slug.Make(subjectName)
	if name == "" {
		name = "subject"
	}
	return fmt.Sprintf("leitner-%s-%s.json", name, day)
}

func writeAttachment(w http.ResponseWriter, r *http.Request, filename string, v any) {
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	writeJSON(w, r, http.StatusOK, v)
}
