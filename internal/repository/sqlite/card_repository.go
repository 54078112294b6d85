package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

var cardColumns = []string{
	"id", "deck_id", "type", "front", "back", "hints", "tags", "difficulty", "media",
	"box", "last_reviewed", "next_review", "review_count", "correct_count",
}

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Get(ctx context.Context, id string) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("fetching card: id=%s", id)

	c, err := getCard(ctx, r.db, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to get card: %v", err)
	}
	return c, err
}

func (r *cardRepository) List(ctx context.Context, filter models.CardFilter) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%s, subject_id=%s, box=%d", filter.DeckID, filter.SubjectID, filter.Box)

	where := squirrel.And{scopeWhere(models.Scope{DeckID: filter.DeckID, SubjectID: filter.SubjectID})}
	if filter.Box != 0 {
		where = append(where, squirrel.Eq{"box": filter.Box})
	}
	cards, err := listCards(ctx, r.db, where)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	log.Debug("found %d cards", len(cards))
	return cards, nil
}

func (r *cardRepository) Insert(ctx context.Context, c models.Flashcard) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: id=%s, deck_id=%s", c.ID, c.DeckID)

	if err := insertCard(ctx, r.db, c); err != nil {
		log.Error("failed to insert card: %v", err)
		return err
	}
	return nil
}

func (r *cardRepository) Update(ctx context.Context, id string, update models.FlashcardUpdate) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card: id=%s", id)

	var updated models.Flashcard
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getCard(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = update.Apply(*current)
		updated.ID = id

		hints, err := jsonColumn(updated.Hints)
		if err != nil {
			return err
		}
		tags, err := jsonColumn(updated.Tags)
		if err != nil {
			return err
		}
		media, err := jsonColumn(updated.Media)
		if err != nil {
			return err
		}
		_, err = exec(ctx, tx, sqlBuilder.Update("cards").
			Set("deck_id", updated.DeckID).
			Set("type", string(updated.Type)).
			Set("front", updated.Front).
			Set("back", updated.Back).
			Set("hints", hints).
			Set("tags", tags).
			Set("difficulty", nullInt(updated.Difficulty)).
			Set("media", media).
			Set("box", updated.Box).
			Set("last_reviewed", nullString(updated.LastReviewed)).
			Set("next_review", nullString(updated.NextReview)).
			Set("review_count", updated.ReviewCount).
			Set("correct_count", updated.CorrectCount).
			Where(squirrel.Eq{"id": id}))
		return err
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("failed to update card: %v", err)
		}
		return nil, err
	}
	log.Debug("card updated: id=%s, box=%d, next_review=%s", id, updated.Box, updated.NextReview)
	return &updated, nil
}

func (r *cardRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting card: id=%s", id)

	res, err := exec(ctx, r.db, sqlBuilder.Delete("cards").Where(squirrel.Eq{"id": id}))
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return err
	}
	return mustAffect(res, "card", id)
}

func (r *cardRepository) DueForReview(ctx context.Context, scope models.Scope, asOf time.Time) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	today := flashcard.Today(asOf)
	log.Debug("fetching due cards: deck_id=%s, subject_id=%s, as_of=%s", scope.DeckID, scope.SubjectID, today)

	cards, err := listCards(ctx, r.db, squirrel.And{
		scopeWhere(scope),
		squirrel.Or{
			squirrel.Eq{"next_review": nil},
			squirrel.Eq{"next_review": ""},
			squirrel.Expr("substr(next_review, 1, 10) <= ?", today),
		},
	})
	if err != nil {
		log.Error("failed to query due cards: %v", err)
		return nil, err
	}
	log.Debug("found %d due cards", len(cards))
	return cards, nil
}

// scopeWhere restricts to a deck, or else to every deck of a subject.
func scopeWhere(scope models.Scope) squirrel.Sqlizer {
	switch {
	case scope.DeckID != "":
		return squirrel.Eq{"deck_id": scope.DeckID}
	case scope.SubjectID != "":
		return squirrel.Expr("deck_id IN (SELECT id FROM decks WHERE subject_id = ?)", scope.SubjectID)
	}
	return squirrel.And{}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func insertCard(ctx context.Context, q querier, c models.Flashcard) error {
	hints, err := jsonColumn(c.Hints)
	if err != nil {
		return err
	}
	tags, err := jsonColumn(c.Tags)
	if err != nil {
		return err
	}
	media, err := jsonColumn(c.Media)
	if err != nil {
		return err
	}
	cardType := c.Type
	if cardType == "" {
		cardType = models.CardTypeBasic
	}
	_, err = exec(ctx, q, sqlBuilder.Insert("cards").
		Columns(cardColumns...).
		Values(c.ID, c.DeckID, string(cardType), c.Front, c.Back, hints, tags, nullInt(c.Difficulty), media,
			c.Box, nullString(c.LastReviewed), nullString(c.NextReview), c.ReviewCount, c.CorrectCount))
	return err
}

func getCard(ctx context.Context, q querier, id string) (*models.Flashcard, error) {
	cards, err := listCards(ctx, q, squirrel.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, notFound("card", id)
	}
	return &cards[0], nil
}

// listCards returns cards matching where in insertion order.
func listCards(ctx context.Context, q querier, where squirrel.Sqlizer) ([]models.Flashcard, error) {
	b := sqlBuilder.Select(cardColumns...).From("cards").OrderBy("rowid")
	if where != nil {
		b = b.Where(where)
	}
	rows, err := query(ctx, q, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.Flashcard{}
	for rows.Next() {
		var c models.Flashcard
		var cardType string
		var hints, tags, media, lastReviewed, nextReview sql.NullString
		var difficulty sql.NullInt64
		if err := rows.Scan(&c.ID, &c.DeckID, &cardType, &c.Front, &c.Back, &hints, &tags, &difficulty, &media,
			&c.Box, &lastReviewed, &nextReview, &c.ReviewCount, &c.CorrectCount); err != nil {
			return nil, err
		}
		c.Type = models.CardType(cardType)
		c.Difficulty = int(difficulty.Int64)
		c.LastReviewed = lastReviewed.String
		c.NextReview = nextReview.String
		if err := decodeJSONColumn(hints, &c.Hints); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn(tags, &c.Tags); err != nil {
			return nil, err
		}
		if media.Valid {
			c.Media = &models.FlashcardMedia{}
			if err := decodeJSONColumn(media, c.Media); err != nil {
				return nil, err
			}
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
