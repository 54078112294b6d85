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

var deckColumns = []string{"id", "name", "description", "tags", "subject_id", "created_at", "updated_at"}

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Get(ctx context.Context, id string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("fetching deck: id=%s", id)

	decks, err := listDecks(ctx, r.db, squirrel.Eq{"id": id})
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	if len(decks) == 0 {
		return nil, notFound("deck", id)
	}
	return &decks[0], nil
}

func (r *deckRepository) List(ctx context.Context, filter models.DeckFilter) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks: subject_id=%s, standalone=%v", filter.SubjectID, filter.Standalone)

	var where squirrel.Sqlizer
	switch {
	case filter.SubjectID != "":
		where = squirrel.Eq{"subject_id": filter.SubjectID}
	case filter.Standalone:
		where = squirrel.Or{
			squirrel.Eq{"subject_id": nil},
			squirrel.Expr("subject_id NOT IN (SELECT id FROM subjects)"),
		}
	}

	decks, err := listDecks(ctx, r.db, where)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	log.Debug("found %d decks", len(decks))
	return decks, nil
}

func (r *deckRepository) Insert(ctx context.Context, d models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("inserting deck: id=%s, subject_id=%s", d.ID, d.SubjectID)

	if err := insertDeck(ctx, r.db, d); err != nil {
		log.Error("failed to insert deck: %v", err)
		return err
	}
	return nil
}

func (r *deckRepository) Update(ctx context.Context, d models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("updating deck: id=%s", d.ID)

	tags, err := jsonColumn(d.Tags)
	if err != nil {
		return err
	}
	res, err := exec(ctx, r.db, sqlBuilder.Update("decks").
		Set("name", d.Name).
		Set("description", nullString(d.Description)).
		Set("tags", tags).
		Set("subject_id", nullString(d.SubjectID)).
		Set("updated_at", d.UpdatedAt).
		Where(squirrel.Eq{"id": d.ID}))
	if err != nil {
		log.Error("failed to update deck: %v", err)
		return err
	}
	return mustAffect(res, "deck", d.ID)
}

func (r *deckRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Info("deleting deck with cards: id=%s", id)

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := exec(ctx, tx, sqlBuilder.Delete("cards").Where(squirrel.Eq{"deck_id": id})); err != nil {
			return err
		}
		res, err := exec(ctx, tx, sqlBuilder.Delete("decks").Where(squirrel.Eq{"id": id}))
		if err != nil {
			return err
		}
		return mustAffect(res, "deck", id)
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to delete deck: %v", err)
	}
	return err
}

func insertDeck(ctx context.Context, q querier, d models.Deck) error {
	tags, err := jsonColumn(d.Tags)
	if err != nil {
		return err
	}
	_, err = exec(ctx, q, sqlBuilder.Insert("decks").
		Columns(deckColumns...).
		Values(d.ID, d.Name, nullString(d.Description), tags, nullString(d.SubjectID), d.CreatedAt, d.UpdatedAt))
	return err
}

// listDecks returns decks matching where (nil for all) in insertion order.
func listDecks(ctx context.Context, q querier, where squirrel.Sqlizer) ([]models.Deck, error) {
	b := sqlBuilder.Select(deckColumns...).From("decks").OrderBy("rowid")
	if where != nil {
		b = b.Where(where)
	}
	rows, err := query(ctx, q, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decks := []models.Deck{}
	for rows.Next() {
		var d models.Deck
		var description, tags, subjectID sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &description, &tags, &subjectID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Description = description.String
		d.SubjectID = subjectID.String
		if err := decodeJSONColumn(tags, &d.Tags); err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}
