package exchange_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnedoszytko/leitner-flashcards/internal/exchange"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

func sequentialIDs() exchange.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

func sampleSubject() models.SubjectDocument {
	return models.SubjectDocument{
		Subject: models.Subject{ID: "s1", Name: "Biology", CreatedAt: "2023-01-01T00:00:00.000Z"},
		Decks: []models.DeckDocument{
			{
				Deck: models.Deck{ID: "d1", Name: "Cells", SubjectID: "s1"},
				Cards: []models.Flashcard{
					{ID: "c1", Front: "a", DeckID: "d1", Box: 1},
					{ID: "", Front: "b", DeckID: "d1", Box: 1},
				},
			},
		},
	}
}

func TestPlanSubjectImport_RegeneratesAllIDs(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	plan := exchange.PlanSubjectImport(sampleSubject(), []string{"Chemistry"}, now, sequentialIDs())

	assert.False(t, plan.Renamed)
	assert.Equal(t, "Biology", plan.Subject.Name)
	assert.Equal(t, "new-1", plan.Subject.ID)
	assert.Equal(t, "2023-01-01T00:00:00.000Z", plan.Subject.CreatedAt)
	assert.Equal(t, "2024-06-01T12:00:00.000Z", plan.Subject.UpdatedAt)

	require.Len(t, plan.Subject.Decks, 1)
	deck := plan.Subject.Decks[0]
	assert.Equal(t, "new-2", deck.ID)
	assert.Equal(t, "new-1", deck.SubjectID)
	assert.Equal(t, "2024-06-01T12:00:00.000Z", deck.CreatedAt)

	require.Len(t, deck.Cards, 2)
	assert.Equal(t, "new-3", deck.Cards[0].ID)
	assert.Equal(t, "new-4", deck.Cards[1].ID)
	for _, c := range deck.Cards {
		assert.Equal(t, "new-2", c.DeckID)
	}

	assert.Equal(t, map[string]string{"s1": "new-1", "d1": "new-2", "c1": "new-3"}, plan.IDMap)
}

func TestPlanSubjectImport_NameCollision(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	plan := exchange.PlanSubjectImport(sampleSubject(), []string{" biology "}, now, sequentialIDs())

	assert.True(t, plan.Renamed)
	assert.Equal(t, "Biology", plan.OriginalName)
	assert.Equal(t, "Biology (Imported 2024-06-01 12:00:00)", plan.Subject.Name)
}

func TestPlanSubjectImport_DoesNotMutateInput(t *testing.T) {
	in := sampleSubject()

	exchange.PlanSubjectImport(in, nil, time.Now(), nil)

	assert.Equal(t, "s1", in.ID)
	assert.Equal(t, "d1", in.Decks[0].ID)
	assert.Equal(t, "c1", in.Decks[0].Cards[0].ID)
}
