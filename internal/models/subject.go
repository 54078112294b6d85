package models

type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// SubjectSummary is a subject with its deck and card counts, as listed by
// subject management.
type SubjectSummary struct {
	Subject
	DeckCount int `json:"deckCount"`
	CardCount int `json:"cardCount"`
	DueCount  int `json:"dueCount"`
}
