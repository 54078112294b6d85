package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mnedoszytko/leitner-flashcards/internal/exchange"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

// ErrNotFound is wrapped by repository methods when a referenced row does
// not exist. Use errors.Is to check.
var ErrNotFound = errors.New("repository: not found")

// SubjectRepository handles subject data access
type SubjectRepository interface {
	Get(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context) ([]models.Subject, error)
	Insert(ctx context.Context, subject models.Subject) error
	Update(ctx context.Context, subject models.Subject) error
	// DeleteCascade removes the subject, its decks and their cards in one
	// transaction.
	DeleteCascade(ctx context.Context, id string) error
}

// DeckRepository handles deck data access
type DeckRepository interface {
	Get(ctx context.Context, id string) (*models.Deck, error)
	List(ctx context.Context, filter models.DeckFilter) ([]models.Deck, error)
	Insert(ctx context.Context, deck models.Deck) error
	Update(ctx context.Context, deck models.Deck) error
	// Delete removes the deck and its cards in one transaction.
	Delete(ctx context.Context, id string) error
}

// SessionRepository handles study session records. Sessions are append-only.
type SessionRepository interface {
	Insert(ctx context.Context, session models.StudySession) error
	Get(ctx context.Context, id string) (*models.StudySession, error)
	List(ctx context.Context, deckID string) ([]models.StudySession, error)
}

// ExchangeRepository reads and writes whole exchange documents.
type ExchangeRepository interface {
	// Import writes doc in a single transaction spanning all four tables.
	Import(ctx context.Context, doc *exchange.Document, opts models.ImportOptions, now time.Time) (*models.ImportSummary, error)
	Export(ctx context.Context, includeStats bool) (*models.FullBackup, error)
	ExportSubject(ctx context.Context, subjectID string) (*models.SingleSubjectExport, error)
}
