package services

import (
	"context"
	stderrors "errors"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/exchange"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

// CardService handles flashcard management outside of review sessions
type CardService interface {
	ListCards(ctx context.Context, filter models.CardFilter) ([]models.Flashcard, error)
	GetCard(ctx context.Context, id string) (*models.Flashcard, error)
	// CreateCard stores a new card with fresh learning progress.
	CreateCard(ctx context.Context, card models.Flashcard) (*models.Flashcard, error)
	// UpdateCard applies a content edit. Review progress is left as is.
	UpdateCard(ctx context.Context, id string, edit models.CardEdit) (*models.Flashcard, error)
	DeleteCard(ctx context.Context, id string) error
}

type cardService struct {
	cards repository.CardRepository
	decks repository.DeckRepository
	opts  options
}

// NewCardService creates a new CardService
func NewCardService(cards repository.CardRepository, decks repository.DeckRepository, opts ...Option) CardService {
	return &cardService{cards: cards, decks: decks, opts: buildOptions(opts)}
}

func (s *cardService) ListCards(ctx context.Context, filter models.CardFilter) ([]models.Flashcard, error) {
	if filter.Box != 0 && (filter.Box < models.MinBox || filter.Box > models.MaxBox) {
		return nil, errors.NewValidationError("box", "must be between 1 and 4")
	}
	cards, err := s.cards.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *cardService) GetCard(ctx context.Context, id string) (*models.Flashcard, error) {
	card, err := s.cards.Get(ctx, id)
	if err != nil {
		return nil, repoError(err, "card", id)
	}
	return card, nil
}

func (s *cardService) CreateCard(ctx context.Context, card models.Flashcard) (*models.Flashcard, error) {
	log := logger.FromContext(ctx)

	card = flashcard.InitializeCard(card, s.opts.now())
	if err := exchange.ValidateCard(&card, "card"); err != nil {
		return nil, err
	}
	if err := s.requireDeck(ctx, card.DeckID); err != nil {
		return nil, err
	}

	log.Debug("creating card: id=%s, deck_id=%s", card.ID, card.DeckID)
	if err := s.cards.Insert(ctx, card); err != nil {
		log.Error("failed to create card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &card, nil
}

func (s *cardService) UpdateCard(ctx context.Context, id string, edit models.CardEdit) (*models.Flashcard, error) {
	log := logger.FromContext(ctx)
	update := edit.Update()

	current, err := s.cards.Get(ctx, id)
	if err != nil {
		return nil, repoError(err, "card", id)
	}
	merged := update.Apply(*current)
	if err := exchange.ValidateCard(&merged, "card"); err != nil {
		return nil, err
	}
	if update.Type != nil {
		update.Type = &merged.Type
	}
	if update.DeckID != nil && *update.DeckID != current.DeckID {
		if err := s.requireDeck(ctx, *update.DeckID); err != nil {
			return nil, err
		}
	}

	log.Debug("updating card: id=%s", id)
	updated, err := s.cards.Update(ctx, id, update)
	if err != nil {
		if !stderrors.Is(err, repository.ErrNotFound) {
			log.Error("failed to update card: %v", err)
		}
		return nil, repoError(err, "card", id)
	}
	return updated, nil
}

func (s *cardService) DeleteCard(ctx context.Context, id string) error {
	if err := s.cards.Delete(ctx, id); err != nil {
		return repoError(err, "card", id)
	}
	return nil
}

func (s *cardService) requireDeck(ctx context.Context, deckID string) error {
	if deckID == "" {
		return errors.NewValidationError("deckId", "is required")
	}
	if _, err := s.decks.Get(ctx, deckID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NewValidationError("deckId", "deck does not exist")
		}
		return errors.NewInternalError(err)
	}
	return nil
}
