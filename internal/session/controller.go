// Package session drives one review pass over a fixed list of cards.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

type State string

const (
	StatePresenting State = "presenting"
	StateRevealed   State = "revealed"
	StateComplete   State = "complete"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("session: invalid transition")
	ErrNoHint            = errors.New("session: card has no hints")
)

// CardUpdateError reports that an answer could not be persisted. The session
// stays on the card; the reviewer may retry or Skip.
type CardUpdateError struct {
	CardID string
	Err    error
}

func (e *CardUpdateError) Error() string {
	return fmt.Sprintf("update card %s: %v", e.CardID, e.Err)
}

func (e *CardUpdateError) Unwrap() error { return e.Err }

// RecordError reports that a finished session could not be stored. Card
// progress written by earlier answers is kept; Record retries the write.
type RecordError struct {
	SessionID string
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record session %s: %v", e.SessionID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// View is a read-only snapshot of a controller.
type View struct {
	SessionID string              `json:"sessionId"`
	State     State               `json:"state"`
	Index     int                 `json:"index"`
	Total     int                 `json:"total"`
	Card      *models.Flashcard   `json:"card,omitempty"`
	Hint      string              `json:"hint,omitempty"`
	Session   models.StudySession `json:"session"`
	// Unsaved is set when the session is complete but not yet stored.
	Unsaved bool `json:"unsaved,omitempty"`
}

// Controller is a Leitner review state machine. The card list is copied at
// construction; later store changes do not affect it. Methods are safe for
// concurrent use.
type Controller struct {
	mu sync.Mutex

	cards     []models.Flashcard
	index     int
	state     State
	hintShown bool
	session   models.StudySession
	// pending is set while a completed session still has to be stored.
	pending bool

	cardRepo    repository.CardRepository
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

type Option func(*Controller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(c *Controller) { c.session.ID = id }
}

// New starts a session labelled deckID over cards. With no cards the
// controller starts complete and nothing is recorded.
func New(deckID string, cards []models.Flashcard, cardRepo repository.CardRepository, sessionRepo repository.SessionRepository, opts ...Option) *Controller {
	c := &Controller{
		cards:       append([]models.Flashcard(nil), cards...),
		state:       StatePresenting,
		cardRepo:    cardRepo,
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session.ID == "" {
		c.session.ID = uuid.NewString()
	}
	c.session.DeckID = deckID
	c.session.StartTime = flashcard.Timestamp(c.now())
	c.session.BoxProgress = models.NewBoxProgress()
	if len(c.cards) == 0 {
		c.state = StateComplete
	}
	return c
}

func (c *Controller) ID() string {
	return c.session.ID
}

// View returns the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

// ShowHint reveals the first hint of the current card.
func (c *Controller) ShowHint() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePresenting {
		return c.view(), c.invalid("show hint")
	}
	if len(c.cards[c.index].Hints) == 0 {
		return c.view(), ErrNoHint
	}
	c.hintShown = true
	return c.view(), nil
}

// Reveal shows the back of the current card.
func (c *Controller) Reveal() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePresenting {
		return c.view(), c.invalid("reveal")
	}
	c.state = StateRevealed
	return c.view(), nil
}

// Answer grades the revealed card, persists its new schedule and moves on.
// Answering the last card completes the session and records it.
func (c *Controller) Answer(ctx context.Context, correct bool) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := logger.FromContext(ctx).WithPrefix("session").WithField("session_id", c.session.ID)

	if c.state != StateRevealed {
		return c.view(), c.invalid("answer")
	}

	card := c.cards[c.index]
	oldBox := card.Box
	updated := flashcard.ProcessReview(card, correct, c.now())
	log.Debug("answer: card=%s, correct=%v, box %d -> %d", card.ID, correct, oldBox, updated.Box)

	if _, err := c.cardRepo.Update(ctx, card.ID, models.ProgressUpdate(updated)); err != nil {
		log.Warn("failed to persist review for card %s: %v", card.ID, err)
		return c.view(), &CardUpdateError{CardID: card.ID, Err: err}
	}
	c.cards[c.index] = updated

	c.session.CardsReviewed++
	if correct {
		c.session.CorrectAnswers++
	}
	progress := c.session.BoxProgress[oldBox]
	switch {
	case updated.Box > oldBox:
		progress.Promoted++
	case updated.Box < oldBox:
		progress.Demoted++
	}
	c.session.BoxProgress[oldBox] = progress

	return c.advance(ctx)
}

// Skip moves past the current card without grading it.
func (c *Controller) Skip(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateComplete {
		return c.view(), c.invalid("skip")
	}
	logger.FromContext(ctx).WithPrefix("session").Debug("skip: card=%s", c.cards[c.index].ID)
	return c.advance(ctx)
}

// Next shows the following card without any scheduling side effect. On the
// last card it only hides the answer.
func (c *Controller) Next() (View, error) {
	return c.navigate(1)
}

// Previous shows the preceding card without any scheduling side effect.
func (c *Controller) Previous() (View, error) {
	return c.navigate(-1)
}

func (c *Controller) navigate(step int) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateComplete {
		return c.view(), c.invalid("navigate")
	}
	if i := c.index + step; i >= 0 && i < len(c.cards) {
		c.index = i
		c.hintShown = false
	}
	c.state = StatePresenting
	return c.view(), nil
}

func (c *Controller) advance(ctx context.Context) (View, error) {
	c.hintShown = false
	if c.index < len(c.cards)-1 {
		c.index++
		c.state = StatePresenting
		return c.view(), nil
	}

	c.state = StateComplete
	c.session.EndTime = flashcard.Timestamp(c.now())

	log := logger.FromContext(ctx).WithPrefix("session")
	log.Info("session complete: id=%s, reviewed=%d, correct=%d", c.session.ID, c.session.CardsReviewed, c.session.CorrectAnswers)
	c.pending = true
	return c.record(ctx)
}

// Record retries storing a completed session whose first write failed. It is
// a no-op once the session is stored.
func (c *Controller) Record(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateComplete {
		return c.view(), c.invalid("record")
	}
	if !c.pending {
		return c.view(), nil
	}
	return c.record(ctx)
}

// Settled reports whether the session is complete and nothing is left to store.
func (c *Controller) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateComplete && !c.pending
}

func (c *Controller) record(ctx context.Context) (View, error) {
	if err := c.sessionRepo.Insert(ctx, c.session); err != nil {
		logger.FromContext(ctx).WithPrefix("session").WithError(err).Error("failed to record session %s", c.session.ID)
		return c.view(), &RecordError{SessionID: c.session.ID, Err: err}
	}
	c.pending = false
	return c.view(), nil
}

func (c *Controller) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, c.state)
}

func (c *Controller) view() View {
	v := View{
		SessionID: c.session.ID,
		State:     c.state,
		Index:     c.index,
		Total:     len(c.cards),
		Session:   c.session,
		Unsaved:   c.pending,
	}
	v.Session.BoxProgress = make(map[int]models.BoxProgress, len(c.session.BoxProgress))
	for box, p := range c.session.BoxProgress {
		v.Session.BoxProgress[box] = p
	}
	if c.state != StateComplete {
		card := c.cards[c.index]
		v.Card = &card
		if c.hintShown {
			v.Hint = card.Hints[0]
		}
	}
	return v
}
