package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

var subjectColumns = []string{"id", "name", "description", "icon", "color", "created_at", "updated_at"}

type subjectRepository struct {
	db *sql.DB
}

// NewSubjectRepository creates a new SubjectRepository implementation
func NewSubjectRepository(db *sql.DB) repository.SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Get(ctx context.Context, id string) (*models.Subject, error) {
	log := logger.FromContext(ctx).WithPrefix("subject_repo")
	log.Debug("fetching subject: id=%s", id)

	s, err := getSubject(ctx, r.db, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to get subject: %v", err)
	}
	return s, err
}

func (r *subjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	log := logger.FromContext(ctx).WithPrefix("subject_repo")
	log.Debug("listing subjects")

	subjects, err := listSubjects(ctx, r.db)
	if err != nil {
		log.Error("failed to list subjects: %v", err)
		return nil, err
	}
	log.Debug("found %d subjects", len(subjects))
	return subjects, nil
}

func (r *subjectRepository) Insert(ctx context.Context, s models.Subject) error {
	log := logger.FromContext(ctx).WithPrefix("subject_repo")
	log.Debug("inserting subject: id=%s, name=%s", s.ID, s.Name)

	if err := insertSubject(ctx, r.db, s); err != nil {
		log.Error("failed to insert subject: %v", err)
		return err
	}
	return nil
}

func (r *subjectRepository) Update(ctx context.Context, s models.Subject) error {
	log := logger.FromContext(ctx).WithPrefix("subject_repo")
	log.Debug("updating subject: id=%s", s.ID)

	res, err := exec(ctx, r.db, sqlBuilder.Update("subjects").
		Set("name", s.Name).
		Set("description", nullString(s.Description)).
		Set("icon", nullString(s.Icon)).
		Set("color", nullString(s.Color)).
		Set("updated_at", nullString(s.UpdatedAt)).
		Where(squirrel.Eq{"id": s.ID}))
	if err != nil {
		log.Error("failed to update subject: %v", err)
		return err
	}
	return mustAffect(res, "subject", s.ID)
}

func (r *subjectRepository) DeleteCascade(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("subject_repo")
	log.Info("deleting subject with decks and cards: id=%s", id)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		deckIDs := sqlBuilder.Select("id").From("decks").Where(squirrel.Eq{"subject_id": id})
		sub, args, err := deckIDs.ToSql()
		if err != nil {
			return err
		}
		if _, err := exec(ctx, tx, sqlBuilder.Delete("cards").Where("deck_id IN ("+sub+")", args...)); err != nil {
			log.Error("failed to delete subject cards: %v", err)
			return err
		}
		if _, err := exec(ctx, tx, sqlBuilder.Delete("decks").Where(squirrel.Eq{"subject_id": id})); err != nil {
			log.Error("failed to delete subject decks: %v", err)
			return err
		}
		res, err := exec(ctx, tx, sqlBuilder.Delete("subjects").Where(squirrel.Eq{"id": id}))
		if err != nil {
			log.Error("failed to delete subject: %v", err)
			return err
		}
		return mustAffect(res, "subject", id)
	})
}

func insertSubject(ctx context.Context, q querier, s models.Subject) error {
	_, err := exec(ctx, q, sqlBuilder.Insert("subjects").
		Columns(subjectColumns...).
		Values(s.ID, s.Name, nullString(s.Description), nullString(s.Icon), nullString(s.Color),
			nullString(s.CreatedAt), nullString(s.UpdatedAt)))
	return err
}

func getSubject(ctx context.Context, q querier, id string) (*models.Subject, error) {
	rows, err := query(ctx, q, sqlBuilder.Select(subjectColumns...).From("subjects").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, notFound("subject", id)
	}
	s, err := scanSubject(rows)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func listSubjects(ctx context.Context, q querier) ([]models.Subject, error) {
	rows, err := query(ctx, q, sqlBuilder.Select(subjectColumns...).From("subjects").OrderBy("rowid"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func scanSubject(rows *sql.Rows) (models.Subject, error) {
	var s models.Subject
	var description, icon, color, createdAt, updatedAt sql.NullString
	if err := rows.Scan(&s.ID, &s.Name, &description, &icon, &color, &createdAt, &updatedAt); err != nil {
		return s, err
	}
	s.Description = description.String
	s.Icon = icon.String
	s.Color = color.String
	s.CreatedAt = createdAt.String
	s.UpdatedAt = updatedAt.String
	return s, nil
}
