package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

var sessionColumns = []string{"id", "deck_id", "start_time", "end_time", "cards_reviewed", "correct_answers", "box_progress"}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Insert(ctx context.Context, s models.StudySession) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting session: id=%s, deck_id=%s, reviewed=%d, correct=%d", s.ID, s.DeckID, s.CardsReviewed, s.CorrectAnswers)

	if err := insertSession(ctx, r.db, s); err != nil {
		log.Error("failed to insert session: %v", err)
		return err
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("fetching session: id=%s", id)

	sessions, err := listSessions(ctx, r.db, squirrel.Eq{"id": id})
	if err != nil {
		log.Error("failed to get session: %v", err)
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, notFound("session", id)
	}
	return &sessions[0], nil
}

func (r *sessionRepository) List(ctx context.Context, deckID string) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("listing sessions: deck_id=%s", deckID)

	var where squirrel.Sqlizer
	if deckID != "" {
		where = squirrel.Eq{"deck_id": deckID}
	}
	sessions, err := listSessions(ctx, r.db, where)
	if err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, err
	}
	return sessions, nil
}

func insertSession(ctx context.Context, q querier, s models.StudySession) error {
	progress := s.BoxProgress
	if progress == nil {
		progress = map[int]models.BoxProgress{}
	}
	encoded, err := jsonColumn(progress)
	if err != nil {
		return err
	}
	_, err = exec(ctx, q, sqlBuilder.Insert("sessions").
		Columns(sessionColumns...).
		Values(s.ID, s.DeckID, s.StartTime, nullString(s.EndTime), s.CardsReviewed, s.CorrectAnswers, encoded.String))
	return err
}

// listSessions returns sessions in the order they were recorded.
func listSessions(ctx context.Context, q querier, where squirrel.Sqlizer) ([]models.StudySession, error) {
	b := sqlBuilder.Select(sessionColumns...).From("sessions").OrderBy("rowid")
	if where != nil {
		b = b.Where(where)
	}
	rows, err := query(ctx, q, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		var s models.StudySession
		var endTime, progress sql.NullString
		if err := rows.Scan(&s.ID, &s.DeckID, &s.StartTime, &endTime, &s.CardsReviewed, &s.CorrectAnswers, &progress); err != nil {
			return nil, err
		}
		s.EndTime = endTime.String
		s.BoxProgress = map[int]models.BoxProgress{}
		if err := decodeJSONColumn(progress, &s.BoxProgress); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
