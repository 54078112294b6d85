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

// SubjectInput carries the editable fields of a subject.
type SubjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
}

// SubjectService handles subject management
type SubjectService interface {
	ListSubjects(ctx context.Context) ([]models.SubjectSummary, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	CreateSubject(ctx context.Context, in SubjectInput) (*models.Subject, error)
	EditSubject(ctx context.Context, id string, in SubjectInput) (*models.Subject, error)
	// DeleteSubjectCascade removes the subject with all its decks and cards.
	DeleteSubjectCascade(ctx context.Context, id string) error
}

type subjectService struct {
	subjects repository.SubjectRepository
	decks    repository.DeckRepository
	cards    repository.CardRepository
	opts     options
}

// NewSubjectService creates a new SubjectService
func NewSubjectService(subjects repository.SubjectRepository, decks repository.DeckRepository, cards repository.CardRepository, opts ...Option) SubjectService {
	return &subjectService{subjects: subjects, decks: decks, cards: cards, opts: buildOptions(opts)}
}

func (s *subjectService) ListSubjects(ctx context.Context) ([]models.SubjectSummary, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing subjects")

	subjects, err := s.subjects.List(ctx)
	if err != nil {
		log.Error("failed to list subjects: %v", err)
		return nil, errors.NewInternalError(err)
	}
	decks, err := s.decks.List(ctx, models.DeckFilter{})
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	cards, err := s.cards.List(ctx, models.CardFilter{})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	subjectOf := make(map[string]string, len(decks))
	deckCount := make(map[string]int)
	for _, d := range decks {
		subjectOf[d.ID] = d.SubjectID
		deckCount[d.SubjectID]++
	}
	cardCount := make(map[string]int)
	dueCount := make(map[string]int)
	now := s.opts.now()
	for _, c := range cards {
		subjectID := subjectOf[c.DeckID]
		cardCount[subjectID]++
		if flashcard.IsDue(c, now) {
			dueCount[subjectID]++
		}
	}

	out := make([]models.SubjectSummary, 0, len(subjects))
	for _, subj := range subjects {
		out = append(out, models.SubjectSummary{
			Subject:   subj,
			DeckCount: deckCount[subj.ID],
			CardCount: cardCount[subj.ID],
			DueCount:  dueCount[subj.ID],
		})
	}
	return out, nil
}

func (s *subjectService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.Get(ctx, id)
	if err != nil {
		return nil, repoError(err, "subject", id)
	}
	return subject, nil
}

func (s *subjectService) CreateSubject(ctx context.Context, in SubjectInput) (*models.Subject, error) {
	log := logger.FromContext(ctx)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}

	ts := flashcard.Timestamp(s.opts.now())
	subject := models.Subject{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	log.Debug("creating subject: name=%s", name)
	if err := s.subjects.Insert(ctx, subject); err != nil {
		log.Error("failed to create subject: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("subject created: id=%s", subject.ID)
	return &subject, nil
}

func (s *subjectService) EditSubject(ctx context.Context, id string, in SubjectInput) (*models.Subject, error) {
	log := logger.FromContext(ctx)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}

	subject, err := s.subjects.Get(ctx, id)
	if err != nil {
		return nil, repoError(err, "subject", id)
	}
	subject.Name = name
	subject.Description = in.Description
	subject.Icon = in.Icon
	subject.Color = in.Color
	subject.UpdatedAt = flashcard.Timestamp(s.opts.now())

	log.Debug("editing subject: id=%s", id)
	if err := s.subjects.Update(ctx, *subject); err != nil {
		log.Error("failed to update subject: %v", err)
		return nil, repoError(err, "subject", id)
	}
	return subject, nil
}

func (s *subjectService) DeleteSubjectCascade(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	log.Info("deleting subject: id=%s", id)

	if err := s.subjects.DeleteCascade(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NewNotFoundError("subject", id)
		}
		log.Error("failed to delete subject: %v", err)
		return errors.NewStorageTransactionError("delete subject", err)
	}
	return nil
}
