package repository

import (
	"context"
	"time"

	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

// CardRepository handles flashcard data access
type CardRepository interface {
	Get(ctx context.Context, id string) (*models.Flashcard, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Flashcard, error)
	Insert(ctx context.Context, card models.Flashcard) error
	// Update merges the non-nil fields of update into the stored card and
	// returns the result. Unknown ids wrap ErrNotFound.
	Update(ctx context.Context, id string, update models.FlashcardUpdate) (*models.Flashcard, error)
	Delete(ctx context.Context, id string) error
	// DueForReview returns the cards in scope whose next review day is on or
	// before asOf, plus cards never scheduled.
	DueForReview(ctx context.Context, scope models.Scope, asOf time.Time) ([]models.Flashcard, error)
}
