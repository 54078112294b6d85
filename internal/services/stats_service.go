package services

import (
	"context"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

// StatsService handles statistics-related business logic
type StatsService interface {
	GetStatistics(ctx context.Context, scope models.Scope) (*models.CardStatistics, error)
	// GetBoxBreakdown lists, for one box, the card and due counts of every
	// subject that has cards in it.
	GetBoxBreakdown(ctx context.Context, box int) (*models.BoxBreakdown, error)
}

type statsService struct {
	subjects repository.SubjectRepository
	decks    repository.DeckRepository
	cards    repository.CardRepository
	opts     options
}

// NewStatsService creates a new StatsService
func NewStatsService(subjects repository.SubjectRepository, decks repository.DeckRepository, cards repository.CardRepository, opts ...Option) StatsService {
	return &statsService{subjects: subjects, decks: decks, cards: cards, opts: buildOptions(opts)}
}

func (s *statsService) GetStatistics(ctx context.Context, scope models.Scope) (*models.CardStatistics, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting statistics: deck_id=%s, subject_id=%s", scope.DeckID, scope.SubjectID)

	cards, err := s.cards.List(ctx, models.CardFilter{DeckID: scope.DeckID, SubjectID: scope.SubjectID})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	stats := flashcard.GetStatistics(cards, s.opts.now())
	return &stats, nil
}

func (s *statsService) GetBoxBreakdown(ctx context.Context, box int) (*models.BoxBreakdown, error) {
	log := logger.FromContext(ctx)
	if box < models.MinBox || box > models.MaxBox {
		return nil, errors.NewValidationError("box", "must be between 1 and 4")
	}
	log.Debug("getting box breakdown: box=%d", box)

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
	cards, err := s.cards.List(ctx, models.CardFilter{Box: box})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	subjectOf := make(map[string]string, len(decks))
	for _, d := range decks {
		subjectOf[d.ID] = d.SubjectID
	}
	counts := make(map[string]*models.SubjectBoxStat)
	now := s.opts.now()
	for _, c := range cards {
		stat, ok := counts[subjectOf[c.DeckID]]
		if !ok {
			stat = &models.SubjectBoxStat{}
			counts[subjectOf[c.DeckID]] = stat
		}
		stat.CardCount++
		if flashcard.IsDue(c, now) {
			stat.DueCount++
		}
	}

	out := &models.BoxBreakdown{Box: box, Subjects: []models.SubjectBoxStat{}}
	for _, subj := range subjects {
		stat, ok := counts[subj.ID]
		if !ok {
			continue
		}
		stat.Subject = subj
		out.Subjects = append(out.Subjects, *stat)
		out.TotalCards += stat.CardCount
		out.TotalDue += stat.DueCount
	}
	return out, nil
}
