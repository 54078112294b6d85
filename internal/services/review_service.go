package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
	"github.com/mnedoszytko/leitner-flashcards/internal/session"
)

// StartRequest selects the cards of a review session. DeckID wins over
// SubjectID; Box narrows to cards in that box. Only due cards are included.
type StartRequest struct {
	DeckID    string `json:"deckId,omitempty"`
	SubjectID string `json:"subjectId,omitempty"`
	Box       int    `json:"box,omitempty"`
}

// Label is the deckId recorded on the session.
func (r StartRequest) Label() string {
	switch {
	case r.DeckID != "":
		return r.DeckID
	case r.SubjectID != "":
		return "subject-" + r.SubjectID
	case r.Box != 0:
		return fmt.Sprintf("box-%d", r.Box)
	}
	return "all"
}

// ReviewService runs review sessions. Active sessions live in memory until
// they complete.
type ReviewService interface {
	DueCards(ctx context.Context, scope models.Scope) ([]models.Flashcard, error)
	StartSession(ctx context.Context, req StartRequest) (*session.View, error)
	GetSession(ctx context.Context, id string) (*session.View, error)
	ShowHint(ctx context.Context, id string) (*session.View, error)
	Reveal(ctx context.Context, id string) (*session.View, error)
	AnswerCard(ctx context.Context, id string, correct bool) (*session.View, error)
	Next(ctx context.Context, id string) (*session.View, error)
	Previous(ctx context.Context, id string) (*session.View, error)
	Skip(ctx context.Context, id string) (*session.View, error)
	// RecordSession retries storing a completed session whose first write
	// failed.
	RecordSession(ctx context.Context, id string) (*session.View, error)
	History(ctx context.Context, deckID string) ([]models.StudySession, error)
}

type reviewService struct {
	cards    repository.CardRepository
	sessions repository.SessionRepository
	opts     options

	mu     sync.Mutex
	active map[string]*session.Controller
}

// NewReviewService creates a new ReviewService
func NewReviewService(cards repository.CardRepository, sessions repository.SessionRepository, opts ...Option) ReviewService {
	return &reviewService{
		cards:    cards,
		sessions: sessions,
		opts:     buildOptions(opts),
		active:   make(map[string]*session.Controller),
	}
}

func (s *reviewService) DueCards(ctx context.Context, scope models.Scope) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting due cards: deck_id=%s, subject_id=%s", scope.DeckID, scope.SubjectID)

	cards, err := s.cards.DueForReview(ctx, scope, s.opts.now())
	if err != nil {
		log.Error("failed to get due cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *reviewService) StartSession(ctx context.Context, req StartRequest) (*session.View, error) {
	log := logger.FromContext(ctx)
	if req.Box != 0 && (req.Box < models.MinBox || req.Box > models.MaxBox) {
		return nil, errors.NewValidationError("box", "must be between 1 and 4")
	}

	due, err := s.DueCards(ctx, models.Scope{DeckID: req.DeckID, SubjectID: req.SubjectID})
	if err != nil {
		return nil, err
	}
	if req.Box != 0 {
		due = flashcard.CardsByBox(due, req.Box)
	}

	c := session.New(req.Label(), due, s.cards, s.sessions, session.WithClock(s.opts.now))
	v := c.View()
	if v.State == session.StateComplete {
		log.Info("no cards due for %s", req.Label())
		return &v, nil
	}

	s.mu.Lock()
	s.active[c.ID()] = c
	s.mu.Unlock()

	log.Info("session started: id=%s, deck=%s, cards=%d", c.ID(), req.Label(), len(due))
	return &v, nil
}

func (s *reviewService) GetSession(ctx context.Context, id string) (*session.View, error) {
	c, err := s.controller(id)
	if err != nil {
		logger.FromContext(ctx).Debug("session not active: id=%s", id)
		return nil, err
	}
	v := c.View()
	return &v, nil
}

func (s *reviewService) ShowHint(ctx context.Context, id string) (*session.View, error) {
	return s.apply(ctx, id, func(c *session.Controller) (session.View, error) { return c.ShowHint() })
}

func (s *reviewService) Reveal(ctx context.Context, id string) (*session.View, error) {
	return s.apply(ctx, id, func(c *session.Controller) (session.View, error) { return c.Reveal() })
}

func (s *reviewService) AnswerCard(ctx context.Context, id string, correct bool) (*session.View, error) {
	return s.apply(ctx, id, func(c *session.Controller) (session.View, error) { return c.Answer(ctx, correct) })
}

func (s *reviewService) Next(ctx context.Context, id string) (*session.View, error) {
	return s.apply(ctx, id, func(c *session.Controller) (session.View, error) { return c.Next() })
}

func (s *reviewService) Previous(ctx context.Context, id string) (*session.View, error) {
	return s.apply(ctx, id, func(c *session.Controller) (session.View, error) { return c.Previous() })
}

func (s *reviewService) Skip(ctx context.Context, id string) (*session.View, error) {
	return s.apply(ctx, id, func(c *session.Controller) (session.View, error) { return c.Skip(ctx) })
}

func (s *reviewService) RecordSession(ctx context.Context, id string) (*session.View, error) {
	return s.apply(ctx, id, func(c *session.Controller) (session.View, error) { return c.Record(ctx) })
}

func (s *reviewService) History(ctx context.Context, deckID string) ([]models.StudySession, error) {
	sessions, err := s.sessions.List(ctx, deckID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list sessions: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return sessions, nil
}

func (s *reviewService) controller(id string) (*session.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.active[id]
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}
	return c, nil
}

// apply runs op on an active session. A session leaves the registry once it
// is complete and stored. On failure the view is returned with the error.
func (s *reviewService) apply(ctx context.Context, id string, op func(*session.Controller) (session.View, error)) (*session.View, error) {
	log := logger.FromContext(ctx).WithField("session_id", id)

	c, err := s.controller(id)
	if err != nil {
		return nil, err
	}
	v, err := op(c)
	if c.Settled() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	}
	if err != nil {
		log.WithError(err).Debug("session operation failed")
		return &v, sessionError(err)
	}
	return &v, nil
}

func sessionError(err error) error {
	var updateErr *session.CardUpdateError
	var recordErr *session.RecordError
	switch {
	case stderrors.As(err, &recordErr):
		return errors.NewRecordError("session", err)
	case stderrors.As(err, &updateErr):
		if stderrors.Is(updateErr.Err, repository.ErrNotFound) {
			return errors.NewNotFoundError("card", updateErr.CardID)
		}
		return errors.NewStorageTransactionError("update card", err)
	case stderrors.Is(err, session.ErrInvalidTransition):
		return errors.NewConflictError(err.Error())
	case stderrors.Is(err, session.ErrNoHint):
		return errors.NewBadRequestError("card has no hints")
	}
	return errors.NewInternalError(err)
}
