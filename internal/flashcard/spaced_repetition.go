package flashcard

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

const (
	// DayLayout is the calendar-day format used for NextReview.
	DayLayout = "2006-01-02"
	// TimestampLayout matches JavaScript's Date.toISOString.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// boxIntervals holds the review interval in days for each Leitner box.
var boxIntervals = map[int]int{
	1: 1,
	2: 3,
	3: 7,
	4: 30,
}

// Interval returns the number of days until the next review for box.
// Out-of-range boxes are clamped.
func Interval(box int) int {
	return boxIntervals[ClampBox(box)]
}

// ClampBox forces box into [MinBox, MaxBox].
func ClampBox(box int) int {
	if box < models.MinBox {
		return models.MinBox
	}
	if box > models.MaxBox {
		return models.MaxBox
	}
	return box
}

// Today returns the UTC calendar day of t.
func Today(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Timestamp formats t as a UTC ISO-8601 timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// dayOf truncates an ISO date or timestamp to its YYYY-MM-DD prefix.
func dayOf(s string) string {
	if len(s) > len(DayLayout) {
		return s[:len(DayLayout)]
	}
	return s
}

// IsDue reports whether card should be reviewed on the day of asOf.
// Cards that were never scheduled are always due.
func IsDue(card models.Flashcard, asOf time.Time) bool {
	if card.NextReview == "" {
		return true
	}
	return dayOf(card.NextReview) <= Today(asOf)
}

// DueCards returns the cards from cards that are due as of asOf.
func DueCards(cards []models.Flashcard, asOf time.Time) []models.Flashcard {
	var due []models.Flashcard
	for _, c := range cards {
		if IsDue(c, asOf) {
			due = append(due, c)
		}
	}
	return due
}

// CardsByBox returns the cards currently in box.
func CardsByBox(cards []models.Flashcard, box int) []models.Flashcard {
	var out []models.Flashcard
	for _, c := range cards {
		if c.Box == box {
			out = append(out, c)
		}
	}
	return out
}

// CountByBox counts cards per box. Every box is present in the result.
func CountByBox(cards []models.Flashcard) map[int]int {
	counts := map[int]int{1: 0, 2: 0, 3: 0, 4: 0}
	for _, c := range cards {
		if c.Box >= models.MinBox && c.Box <= models.MaxBox {
			counts[c.Box]++
		}
	}
	return counts
}

// ProcessReview applies one Leitner review to card and returns the result.
// A correct answer promotes one box (box 4 is terminal), a wrong answer
// sends the card back to box 1. The interval always restarts from now.
func ProcessReview(card models.Flashcard, correct bool, now time.Time) models.Flashcard {
	card.LastReviewed = Timestamp(now)
	card.ReviewCount++

	box := ClampBox(card.Box)
	if correct {
		card.CorrectCount++
		if box < models.MaxBox {
			box++
		}
	} else {
		box = models.MinBox
	}
	card.Box = box
	card.NextReview = Today(now.UTC().AddDate(0, 0, Interval(box)))
	return card
}

// GetStatistics summarises cards as of asOf. AverageCorrectRate is the
// rounded mean success percentage of cards reviewed at least once.
func GetStatistics(cards []models.Flashcard, asOf time.Time) models.CardStatistics {
	stats := models.CardStatistics{
		Total: len(cards),
		ByBox: CountByBox(cards),
	}

	var rateSum float64
	var reviewed int
	for _, c := range cards {
		if IsDue(c, asOf) {
			stats.DueToday++
		}
		if c.Box == models.MaxBox {
			stats.Mastered++
		}
		if c.ReviewCount > 0 {
			rateSum += float64(c.CorrectCount) / float64(c.ReviewCount)
			reviewed++
		}
	}

	if reviewed > 0 {
		stats.AverageCorrectRate = int(math.Round(rateSum / float64(reviewed) * 100))
	}
	return stats
}

// InitializeCard fills defaults for a new or imported card and resets all
// learning progress, whatever the input carried.
func InitializeCard(card models.Flashcard, now time.Time) models.Flashcard {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.Type == "" {
		card.Type = models.CardTypeBasic
	}
	card.Box = models.MinBox
	card.ReviewCount = 0
	card.CorrectCount = 0
	card.LastReviewed = ""
	card.NextReview = Today(now)
	return card
}
