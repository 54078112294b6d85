// Package exchange classifies raw import documents into one of the known
// shapes and plans id remapping for additive imports. It performs no I/O.
package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

// Kind identifies the shape of an import document.
type Kind string

const (
	KindFullBackup      Kind = "full-backup"
	KindSingleSubject   Kind = "single-subject"
	KindMultiSubject    Kind = "multi-subject"
	KindStandaloneDecks Kind = "standalone-decks"
)

// Document is a classified import document. Which payload fields are set
// depends on Kind:
//
//	KindFullBackup:      Subjects, Decks, Sessions
//	KindSingleSubject:   Subject
//	KindMultiSubject:    Subjects, Decks
//	KindStandaloneDecks: Decks
type Document struct {
	Kind     Kind
	Version  string
	Metadata models.ExportMetadata

	Subjects []models.SubjectDocument
	Subject  *models.SubjectDocument
	Decks    []models.DeckDocument
	Sessions []models.StudySession

	// Ignored lists top-level keys that were present but unused because a
	// higher-precedence shape matched.
	Ignored []string
}

// rawDocument mirrors every top-level key we understand. Pointers tell an
// absent key apart from an empty array.
type rawDocument struct {
	Version  json.RawMessage           `json:"version"`
	Metadata *models.ExportMetadata    `json:"metadata"`
	Subjects *[]models.SubjectDocument `json:"subjects"`
	Sections *[]models.SubjectDocument `json:"sections"`
	Subject  *models.SubjectDocument   `json:"subject"`
	Decks    *[]models.DeckDocument    `json:"decks"`
	Sessions []models.StudySession     `json:"sessions"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Decode parses raw and classifies it. Precedence when several shape signals
// are present: explicit single-subject export type, explicit full-backup
// export type, a bare "subject" object, "subjects"/"sections", then "decks".
// The returned document has passed Validate.
func Decode(raw []byte) (*Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.NewValidationError("document", "empty input")
	}
	if raw[0] != '{' {
		return nil, errors.NewValidationError("document", "expected a JSON object at the top level")
	}

	var rd rawDocument
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, errors.NewValidationError("document", fmt.Sprintf("invalid JSON: %v", err))
	}

	if !present(rd.Version) && rd.Decks == nil && rd.Sections == nil && rd.Subject == nil {
		return nil, errors.NewValidationError("document", "expected JSON with version, decks, sections, or subject")
	}

	doc, err := classify(rd)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func classify(rd rawDocument) (*Document, error) {
	doc := &Document{Version: versionString(rd.Version)}
	if rd.Metadata != nil {
		doc.Metadata = *rd.Metadata
	}

	subjects := rd.Subjects
	if subjects == nil {
		subjects = rd.Sections
	} else if rd.Sections != nil {
		doc.Ignored = append(doc.Ignored, "sections")
	}

	switch exportType := doc.Metadata.ExportType; {
	case exportType == models.ExportTypeSingleSubject:
		if rd.Subject == nil {
			return nil, errors.NewValidationError("subject", "single-subject export has no subject object")
		}
		doc.Kind = KindSingleSubject
	case exportType == models.ExportTypeFullBackup:
		doc.Kind = KindFullBackup
	case rd.Subject != nil:
		doc.Kind = KindSingleSubject
	case subjects != nil:
		doc.Kind = KindMultiSubject
	case rd.Decks != nil:
		doc.Kind = KindStandaloneDecks
	default:
		return nil, errors.NewValidationError("document", "no subjects, sections, subject or decks to import")
	}

	ignore := func(key string, isPresent bool) {
		if isPresent {
			doc.Ignored = append(doc.Ignored, key)
		}
	}

	switch doc.Kind {
	case KindSingleSubject:
		doc.Subject = rd.Subject
		ignore("subjects", subjects != nil)
		ignore("decks", rd.Decks != nil)
		ignore("sessions", rd.Sessions != nil)
	case KindFullBackup:
		if subjects != nil {
			doc.Subjects = *subjects
		}
		if rd.Decks != nil {
			doc.Decks = *rd.Decks
		}
		doc.Sessions = rd.Sessions
		ignore("subject", rd.Subject != nil)
	case KindMultiSubject:
		doc.Subjects = *subjects
		if rd.Decks != nil {
			doc.Decks = *rd.Decks
		}
		ignore("sessions", rd.Sessions != nil)
	case KindStandaloneDecks:
		doc.Decks = *rd.Decks
		ignore("sessions", rd.Sessions != nil)
	}
	return doc, nil
}

func versionString(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Validate checks card and session fields and normalises structural
// defaults (empty card type, missing box). It does not touch progress.
func Validate(doc *Document) error {
	for i := range doc.Subjects {
		if err := validateSubject(&doc.Subjects[i], fmt.Sprintf("subjects[%d]", i)); err != nil {
			return err
		}
	}
	if doc.Subject != nil {
		if strings.TrimSpace(doc.Subject.Name) == "" {
			return errors.NewValidationError("subject.name", "must not be empty")
		}
		if err := validateSubject(doc.Subject, "subject"); err != nil {
			return err
		}
	}
	for i := range doc.Decks {
		if err := validateDeck(&doc.Decks[i], fmt.Sprintf("decks[%d]", i)); err != nil {
			return err
		}
	}
	for i, s := range doc.Sessions {
		for box := range s.BoxProgress {
			if box < models.MinBox || box > models.MaxBox {
				return errors.NewValidationError(fmt.Sprintf("sessions[%d].boxProgress", i), fmt.Sprintf("unknown box %d", box))
			}
		}
		if s.CorrectAnswers > s.CardsReviewed || s.CorrectAnswers < 0 {
			return errors.NewValidationError(fmt.Sprintf("sessions[%d].correctAnswers", i), "must be between 0 and cardsReviewed")
		}
	}
	return nil
}

func validateSubject(s *models.SubjectDocument, path string) error {
	for i := range s.Decks {
		if err := validateDeck(&s.Decks[i], fmt.Sprintf("%s.decks[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateDeck(d *models.DeckDocument, path string) error {
	for i := range d.Cards {
		if err := ValidateCard(&d.Cards[i], fmt.Sprintf("%s.cards[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCard checks a single card, filling the default type and box.
// path prefixes the field name in the returned ValidationError.
func ValidateCard(c *models.Flashcard, path string) error {
	if c.Type == "" {
		c.Type = models.CardTypeBasic
	}
	if !c.Type.Valid() {
		return errors.NewValidationError(path+".type", fmt.Sprintf("unknown card type %q", c.Type))
	}
	if c.Box == 0 {
		c.Box = models.MinBox
	}
	if c.Box < models.MinBox || c.Box > models.MaxBox {
		return errors.NewValidationError(path+".box", fmt.Sprintf("must be between %d and %d, got %d", models.MinBox, models.MaxBox, c.Box))
	}
	if c.ReviewCount < 0 || c.CorrectCount < 0 {
		return errors.NewValidationError(path, "review counters must not be negative")
	}
	if c.CorrectCount > c.ReviewCount {
		return errors.NewValidationError(path+".correctCount", "must not exceed reviewCount")
	}
	if c.Difficulty != 0 && (c.Difficulty < 1 || c.Difficulty > 5) {
		return errors.NewValidationError(path+".difficulty", "must be between 1 and 5")
	}
	if c.NextReview != "" {
		if len(c.NextReview) < len(flashcard.DayLayout) {
			return errors.NewValidationError(path+".nextReview", fmt.Sprintf("invalid date %q", c.NextReview))
		}
		if _, err := time.Parse(flashcard.DayLayout, c.NextReview[:len(flashcard.DayLayout)]); err != nil {
			return errors.NewValidationError(path+".nextReview", fmt.Sprintf("invalid date %q", c.NextReview))
		}
	}
	return nil
}

// Summarize counts what importing doc would write, without writing it.
func Summarize(doc *Document, opts models.ImportOptions) models.ImportSummary {
	sum := models.ImportSummary{Kind: string(doc.Kind), Cleared: WillClear(doc.Kind, opts)}

	countDecks := func(decks []models.DeckDocument) {
		sum.Decks += len(decks)
		for _, d := range decks {
			sum.Cards += len(d.Cards)
		}
	}
	for _, s := range doc.Subjects {
		sum.Subjects++
		countDecks(s.Decks)
	}
	if doc.Subject != nil {
		sum.Subjects++
		countDecks(doc.Subject.Decks)
	}
	countDecks(doc.Decks)
	sum.Sessions = len(doc.Sessions)
	return sum
}

// WillClear reports whether an import of kind wipes existing data.
// Single-subject imports are always additive.
func WillClear(kind Kind, opts models.ImportOptions) bool {
	return opts.ClearExisting && kind != KindSingleSubject
}

// ResetProgress runs every card of a non-backup document through
// flashcard.InitializeCard so that imported cards start as new.
func ResetProgress(doc *Document, now time.Time) {
	if doc.Kind == KindFullBackup {
		return
	}
	reset := func(decks []models.DeckDocument) {
		for i := range decks {
			for j := range decks[i].Cards {
				decks[i].Cards[j] = flashcard.InitializeCard(decks[i].Cards[j], now)
			}
		}
	}
	for i := range doc.Subjects {
		reset(doc.Subjects[i].Decks)
	}
	if doc.Subject != nil {
		reset(doc.Subject.Decks)
	}
	reset(doc.Decks)
}
