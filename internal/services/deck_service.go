package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

type DeckInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SubjectID   string   `json:"subjectId,omitempty"`
}

// DeckService handles deck management
type DeckService interface {
	ListDecks(ctx context.Context, filter models.DeckFilter) ([]models.Deck, error)
	GetDeck(ctx context.Context, id string) (*models.Deck, error)
	CreateDeck(ctx context.Context, in DeckInput) (*models.Deck, error)
	EditDeck(ctx context.Context, id string, in DeckInput) (*models.Deck, error)
	DeleteDeck(ctx context.Context, id string) error
}

type deckService struct {
	decks    repository.DeckRepository
	subjects repository.SubjectRepository
	opts     options
}

// NewDeckService creates a new DeckService
func NewDeckService(decks repository.DeckRepository, subjects repository.SubjectRepository, opts ...Option) DeckService {
	return &deckService{decks: decks, subjects: subjects, opts: buildOptions(opts)}
}

func (s *deckService) ListDecks(ctx context.Context, filter models.DeckFilter) ([]models.Deck, error) {
	decks, err := s.decks.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		return nil, repoError(err, "deck", id)
	}
	return deck, nil
}

func (s *deckService) CreateDeck(ctx context.Context, in DeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	ts := flashcard.Timestamp(s.opts.now())
	deck := models.Deck{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Tags:        in.Tags,
		SubjectID:   in.SubjectID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	log.Debug("creating deck: name=%s, subject_id=%s", deck.Name, deck.SubjectID)
	if err := s.decks.Insert(ctx, deck); err != nil {
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &deck, nil
}

func (s *deckService) EditDeck(ctx context.Context, id string, in DeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		return nil, repoError(err, "deck", id)
	}
	deck.Name = in.Name
	deck.Description = in.Description
	deck.Tags = in.Tags
	deck.SubjectID = in.SubjectID
	deck.UpdatedAt = flashcard.Timestamp(s.opts.now())

	log.Debug("editing deck: id=%s", id)
	if err := s.decks.Update(ctx, *deck); err != nil {
		log.Error("failed to update deck: %v", err)
		return nil, repoError(err, "deck", id)
	}
	return deck, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	log.Info("deleting deck: id=%s", id)

	if err := s.decks.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NewNotFoundError("deck", id)
		}
		log.Error("failed to delete deck: %v", err)
		return errors.NewStorageTransactionError("delete deck", err)
	}
	return nil
}

func (s *deckService) validate(ctx context.Context, in *DeckInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.NewValidationError("name", "cannot be empty")
	}
	if in.SubjectID == "" {
		return nil
	}
	if _, err := s.subjects.Get(ctx, in.SubjectID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NewValidationError("subjectId", "subject does not exist")
		}
		return errors.NewInternalError(err)
	}
	return nil
}
