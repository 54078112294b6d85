package models

type BoxProgress struct {
	Promoted int `json:"promoted"`
	Demoted  int `json:"demoted"`
}

// StudySession records one review pass. BoxProgress is keyed by the box a
// card was in before it was answered.
type StudySession struct {
	ID             string              `json:"id"`
	DeckID         string              `json:"deckId"`
	StartTime      string              `json:"startTime"`
	EndTime        string              `json:"endTime,omitempty"`
	CardsReviewed  int                 `json:"cardsReviewed"`
	CorrectAnswers int                 `json:"correctAnswers"`
	BoxProgress    map[int]BoxProgress `json:"boxProgress"`
}

// NewBoxProgress returns zeroed counters for every box.
func NewBoxProgress() map[int]BoxProgress {
	bp := make(map[int]BoxProgress, MaxBox)
	for b := MinBox; b <= MaxBox; b++ {
		bp[b] = BoxProgress{}
	}
	return bp
}
