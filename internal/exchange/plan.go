package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

// SubjectPlan is the outcome of planning an additive single-subject import:
// the subject with every id replaced, and the mapping that was applied.
type SubjectPlan struct {
	Subject      models.SubjectDocument
	OriginalName string
	Renamed      bool
	// IDMap maps each non-empty incoming id to its replacement. Subject,
	// deck and card ids share one map.
	IDMap map[string]string
}

// IDGenerator returns a fresh unique id.
type IDGenerator func() string

// NewID is the default IDGenerator.
func NewID() string {
	return uuid.NewString()
}

// ImportedName disambiguates a subject name that already exists.
func ImportedName(name string, now time.Time) string {
	return fmt.Sprintf("%s (Imported %s)", name, now.UTC().Format("2006-01-02 15:04:05"))
}

// PlanSubjectImport regenerates every id in subject and decides its final
// name. existingNames are the subject names already stored; a case-insensitive
// match triggers a timestamp suffix. Nested decks and cards are rewired to
// the new ids and missing timestamps are filled with now.
func PlanSubjectImport(subject models.SubjectDocument, existingNames []string, now time.Time, newID IDGenerator) SubjectPlan {
	if newID == nil {
		newID = NewID
	}
	ts := flashcard.Timestamp(now)

	plan := SubjectPlan{
		OriginalName: subject.Name,
		IDMap:        make(map[string]string),
	}
	remap := func(old string) string {
		id := newID()
		if old != "" {
			plan.IDMap[old] = id
		}
		return id
	}

	out := models.SubjectDocument{Subject: subject.Subject}
	out.ID = remap(subject.ID)
	out.Name = strings.TrimSpace(subject.Name)
	for _, existing := range existingNames {
		if strings.EqualFold(strings.TrimSpace(existing), out.Name) {
			out.Name = ImportedName(out.Name, now)
			plan.Renamed = true
			break
		}
	}
	if out.CreatedAt == "" {
		out.CreatedAt = ts
	}
	out.UpdatedAt = ts

	out.Decks = make([]models.DeckDocument, 0, len(subject.Decks))
	for _, d := range subject.Decks {
		deck := models.DeckDocument{Deck: d.Deck}
		deck.ID = remap(d.ID)
		deck.SubjectID = out.ID
		if deck.CreatedAt == "" {
			deck.CreatedAt = ts
		}
		if deck.UpdatedAt == "" {
			deck.UpdatedAt = ts
		}
		deck.Cards = make([]models.Flashcard, 0, len(d.Cards))
		for _, c := range d.Cards {
			c.ID = remap(c.ID)
			c.DeckID = deck.ID
			deck.Cards = append(deck.Cards, c)
		}
		out.Decks = append(out.Decks, deck)
	}

	plan.Subject = out
	return plan
}
