package models

// CardStatistics summarises a set of cards.
type CardStatistics struct {
	Total              int         `json:"total"`
	ByBox              map[int]int `json:"byBox"`
	DueToday           int         `json:"dueToday"`
	Mastered           int         `json:"mastered"`
	AverageCorrectRate int         `json:"averageCorrectRate"`
}

// Scope selects the cards an operation works on. DeckID wins over
// SubjectID; both empty means every card.
type Scope struct {
	DeckID    string `json:"deckId,omitempty"`
	SubjectID string `json:"subjectId,omitempty"`
}

// SubjectBoxStat is one row of the per-box breakdown.
type SubjectBoxStat struct {
	Subject   Subject `json:"subject"`
	CardCount int     `json:"cardCount"`
	DueCount  int     `json:"dueCount"`
}

type BoxBreakdown struct {
	Box        int              `json:"box"`
	TotalCards int              `json:"totalCards"`
	TotalDue   int              `json:"totalDue"`
	Subjects   []SubjectBoxStat `json:"subjects"`
}
