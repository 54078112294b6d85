package models

// CardType is the presentation style of a flashcard.
type CardType string

const (
	CardTypeBasic       CardType = "basic"
	CardTypeCloze       CardType = "cloze"
	CardTypeImage       CardType = "image"
	CardTypeMultiChoice CardType = "multi-choice"
)

// Valid reports whether t is one of the known card types.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeBasic, CardTypeCloze, CardTypeImage, CardTypeMultiChoice:
		return true
	}
	return false
}

// Leitner box bounds.
const (
	MinBox = 1
	MaxBox = 4
)

type FlashcardMedia struct {
	FrontImage *string `json:"frontImage,omitempty"`
	BackImage  *string `json:"backImage,omitempty"`
}

// Flashcard is a single card. NextReview is a YYYY-MM-DD day and
// LastReviewed an ISO-8601 timestamp; both are empty until first scheduled.
type Flashcard struct {
	ID           string          `json:"id"`
	Type         CardType        `json:"type"`
	Front        string          `json:"front"`
	Back         string          `json:"back"`
	Hints        []string        `json:"hints,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Difficulty   int             `json:"difficulty,omitempty"`
	Media        *FlashcardMedia `json:"media,omitempty"`
	Box          int             `json:"box"`
	LastReviewed string          `json:"lastReviewed,omitempty"`
	NextReview   string          `json:"nextReview,omitempty"`
	ReviewCount  int             `json:"reviewCount"`
	CorrectCount int             `json:"correctCount"`
	DeckID       string          `json:"deckId,omitempty"`
}

// FlashcardUpdate is a partial update; nil fields are left untouched.
type FlashcardUpdate struct {
	Type         *CardType       `json:"type,omitempty"`
	Front        *string         `json:"front,omitempty"`
	Back         *string         `json:"back,omitempty"`
	Hints        *[]string       `json:"hints,omitempty"`
	Tags         *[]string       `json:"tags,omitempty"`
	Difficulty   *int            `json:"difficulty,omitempty"`
	Media        *FlashcardMedia `json:"media,omitempty"`
	Box          *int            `json:"box,omitempty"`
	LastReviewed *string         `json:"lastReviewed,omitempty"`
	NextReview   *string         `json:"nextReview,omitempty"`
	ReviewCount  *int            `json:"reviewCount,omitempty"`
	CorrectCount *int            `json:"correctCount,omitempty"`
	DeckID       *string         `json:"deckId,omitempty"`
}

// Apply merges the non-nil fields of u into c.
func (u FlashcardUpdate) Apply(c Flashcard) Flashcard {
	if u.Type != nil {
		c.Type = *u.Type
	}
	if u.Front != nil {
		c.Front = *u.Front
	}
	if u.Back != nil {
		c.Back = *u.Back
	}
	if u.Hints != nil {
		c.Hints = *u.Hints
	}
	if u.Tags != nil {
		c.Tags = *u.Tags
	}
	if u.Difficulty != nil {
		c.Difficulty = *u.Difficulty
	}
	if u.Media != nil {
		c.Media = u.Media
	}
	if u.Box != nil {
		c.Box = *u.Box
	}
	if u.LastReviewed != nil {
		c.LastReviewed = *u.LastReviewed
	}
	if u.NextReview != nil {
		c.NextReview = *u.NextReview
	}
	if u.ReviewCount != nil {
		c.ReviewCount = *u.ReviewCount
	}
	if u.CorrectCount != nil {
		c.CorrectCount = *u.CorrectCount
	}
	if u.DeckID != nil {
		c.DeckID = *u.DeckID
	}
	return c
}

// CardEdit is a content-only edit of a card; nil fields are left untouched.
// Review progress is not part of it and changes only through ProcessReview.
type CardEdit struct {
	Type       *CardType       `json:"type,omitempty"`
	Front      *string         `json:"front,omitempty"`
	Back       *string         `json:"back,omitempty"`
	Hints      *[]string       `json:"hints,omitempty"`
	Tags       *[]string       `json:"tags,omitempty"`
	Difficulty *int            `json:"difficulty,omitempty"`
	Media      *FlashcardMedia `json:"media,omitempty"`
	DeckID     *string         `json:"deckId,omitempty"`
}

// Update converts e to the repository's partial update.
func (e CardEdit) Update() FlashcardUpdate {
	return FlashcardUpdate{
		Type:       e.Type,
		Front:      e.Front,
		Back:       e.Back,
		Hints:      e.Hints,
		Tags:       e.Tags,
		Difficulty: e.Difficulty,
		Media:      e.Media,
		DeckID:     e.DeckID,
	}
}

// ProgressUpdate builds the update that persists the scheduling fields of c.
func ProgressUpdate(c Flashcard) FlashcardUpdate {
	return FlashcardUpdate{
		Box:          &c.Box,
		LastReviewed: &c.LastReviewed,
		NextReview:   &c.NextReview,
		ReviewCount:  &c.ReviewCount,
		CorrectCount: &c.CorrectCount,
	}
}

// CardFilter narrows card listings. Zero values mean "any".
type CardFilter struct {
	DeckID    string
	SubjectID string
	Box       int
}
