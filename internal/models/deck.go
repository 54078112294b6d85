package models

// Deck groups cards. An empty SubjectID marks a standalone deck.
type Deck struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SubjectID   string   `json:"subjectId,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type DeckFilter struct {
	SubjectID string
	// Standalone restricts the listing to decks without a subject.
	Standalone bool
}
