package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/mnedoszytko/leitner-flashcards/internal/exchange"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

// clearOrder deletes children before parents so the cards foreign key holds.
var clearOrder = []string{"cards", "sessions", "decks", "subjects"}

type exchangeRepository struct {
	db    *sql.DB
	newID exchange.IDGenerator
}

// NewExchangeRepository creates a new ExchangeRepository implementation
func NewExchangeRepository(db *sql.DB) repository.ExchangeRepository {
	return &exchangeRepository{db: db, newID: exchange.NewID}
}

// Import writes doc atomically. On any error nothing is changed, including
// the clear step.
func (r *exchangeRepository) Import(ctx context.Context, doc *exchange.Document, opts models.ImportOptions, now time.Time) (*models.ImportSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("exchange_repo")
	log.Info("importing document: kind=%s, clear_existing=%v", doc.Kind, opts.ClearExisting)

	summary := models.ImportSummary{Kind: string(doc.Kind)}
	ts := flashcard.Timestamp(now)

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if exchange.WillClear(doc.Kind, opts) {
			log.Info("clearing existing data")
			for _, table := range clearOrder {
				if _, err := exec(ctx, tx, sqlBuilder.Delete(table)); err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
			summary.Cleared = true
		}

		w := &treeWriter{ctx: ctx, q: tx, now: ts, newID: r.newID, summary: &summary}

		switch doc.Kind {
		case exchange.KindSingleSubject:
			subjects, err := listSubjects(ctx, tx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(subjects))
			for _, s := range subjects {
				names = append(names, s.Name)
			}
			plan := exchange.PlanSubjectImport(*doc.Subject, names, now, r.newID)
			if plan.Renamed {
				log.Info("subject name %q exists, importing as %q", plan.OriginalName, plan.Subject.Name)
				summary.RenamedSubject = plan.Subject.Name
			}
			return w.subject(plan.Subject)

		case exchange.KindFullBackup, exchange.KindMultiSubject, exchange.KindStandaloneDecks:
			for _, s := range doc.Subjects {
				if err := w.subject(s); err != nil {
					return err
				}
			}
			for _, d := range doc.Decks {
				if err := w.deck(d, d.SubjectID); err != nil {
					return err
				}
			}
			if doc.Kind == exchange.KindFullBackup {
				for _, s := range doc.Sessions {
					if err := w.session(s); err != nil {
						return err
					}
				}
			}
			return nil
		}
		return fmt.Errorf("unsupported document kind %q", doc.Kind)
	})
	if err != nil {
		log.Error("import failed, rolled back: %v", err)
		return nil, err
	}

	log.Info("import complete: subjects=%d, decks=%d, cards=%d, sessions=%d",
		summary.Subjects, summary.Decks, summary.Cards, summary.Sessions)
	return &summary, nil
}

// treeWriter inserts nested documents, wiring child foreign keys to their
// parent and filling ids and timestamps the file left out.
type treeWriter struct {
	ctx     context.Context
	q       querier
	now     string
	newID   exchange.IDGenerator
	summary *models.ImportSummary
}

func (w *treeWriter) subject(doc models.SubjectDocument) error {
	s := doc.Subject
	if s.ID == "" {
		s.ID = w.newID()
	}
	if err := insertSubject(w.ctx, w.q, s); err != nil {
		return fmt.Errorf("insert subject %s: %w", s.ID, err)
	}
	w.summary.Subjects++
	for _, d := range doc.Decks {
		if err := w.deck(d, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func (w *treeWriter) deck(doc models.DeckDocument, subjectID string) error {
	d := doc.Deck
	if d.ID == "" {
		d.ID = w.newID()
	}
	d.SubjectID = subjectID
	if d.CreatedAt == "" {
		d.CreatedAt = w.now
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = w.now
	}
	if err := insertDeck(w.ctx, w.q, d); err != nil {
		return fmt.Errorf("insert deck %s: %w", d.ID, err)
	}
	w.summary.Decks++
	for _, c := range doc.Cards {
		if c.ID == "" {
			c.ID = w.newID()
		}
		c.DeckID = d.ID
		if err := insertCard(w.ctx, w.q, c); err != nil {
			return fmt.Errorf("insert card %s: %w", c.ID, err)
		}
		w.summary.Cards++
	}
	return nil
}

func (w *treeWriter) session(s models.StudySession) error {
	if s.ID == "" {
		s.ID = w.newID()
	}
	if err := insertSession(w.ctx, w.q, s); err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	w.summary.Sessions++
	return nil
}

// Export reads every table inside one transaction so the snapshot is
// consistent. Metadata.Created and Source are left for the caller.
func (r *exchangeRepository) Export(ctx context.Context, includeStats bool) (*models.FullBackup, error) {
	log := logger.FromContext(ctx).WithPrefix("exchange_repo")
	log.Info("exporting full backup: include_stats=%v", includeStats)

	backup := &models.FullBackup{
		Version:  models.ExchangeVersion,
		Metadata: models.ExportMetadata{ExportType: models.ExportTypeFullBackup},
	}

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		subjects, err := listSubjects(ctx, tx)
		if err != nil {
			return err
		}
		decks, err := listDecks(ctx, tx, nil)
		if err != nil {
			return err
		}
		cards, err := listCards(ctx, tx, nil)
		if err != nil {
			return err
		}

		cardsByDeck := groupCards(cards)
		known := make(map[string]bool, len(subjects))
		for _, s := range subjects {
			known[s.ID] = true
		}

		decksBySubject := make(map[string][]models.DeckDocument)
		backup.Decks = []models.DeckDocument{}
		for _, d := range decks {
			doc := models.DeckDocument{Deck: d, Cards: cardsOrEmpty(cardsByDeck[d.ID])}
			// Decks whose subject is gone are exported with the standalone
			// ones so they survive a round trip.
			if d.SubjectID != "" && known[d.SubjectID] {
				decksBySubject[d.SubjectID] = append(decksBySubject[d.SubjectID], doc)
			} else {
				backup.Decks = append(backup.Decks, doc)
			}
		}

		backup.Subjects = make([]models.SubjectDocument, 0, len(subjects))
		for _, s := range subjects {
			nested := decksBySubject[s.ID]
			if nested == nil {
				nested = []models.DeckDocument{}
			}
			backup.Subjects = append(backup.Subjects, models.SubjectDocument{Subject: s, Decks: nested})
		}

		if !includeStats {
			return nil
		}
		sessions, err := listSessions(ctx, tx, nil)
		if err != nil {
			return err
		}
		backup.Sessions = sessions
		backup.Metadata.Stats = &models.ExportStats{
			TotalSubjects: len(subjects),
			TotalDecks:    len(decks),
			TotalCards:    len(cards),
			TotalSessions: len(sessions),
			CardsByBox:    flashcard.CountByBox(cards),
		}
		return nil
	})
	if err != nil {
		log.Error("export failed: %v", err)
		return nil, err
	}
	log.Info("export complete: subjects=%d, standalone_decks=%d", len(backup.Subjects), len(backup.Decks))
	return backup, nil
}

func (r *exchangeRepository) ExportSubject(ctx context.Context, subjectID string) (*models.SingleSubjectExport, error) {
	log := logger.FromContext(ctx).WithPrefix("exchange_repo")
	log.Info("exporting subject: id=%s", subjectID)

	var out *models.SingleSubjectExport
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		subject, err := getSubject(ctx, tx, subjectID)
		if err != nil {
			return err
		}
		decks, err := listDecks(ctx, tx, squirrel.Eq{"subject_id": subjectID})
		if err != nil {
			return err
		}
		cards, err := listCards(ctx, tx, scopeWhere(models.Scope{SubjectID: subjectID}))
		if err != nil {
			return err
		}

		cardsByDeck := groupCards(cards)
		docs := make([]models.DeckDocument, 0, len(decks))
		for _, d := range decks {
			docs = append(docs, models.DeckDocument{Deck: d, Cards: cardsOrEmpty(cardsByDeck[d.ID])})
		}

		out = &models.SingleSubjectExport{
			Version: models.ExchangeVersion,
			Metadata: models.ExportMetadata{
				ExportType:  models.ExportTypeSingleSubject,
				SubjectName: subject.Name,
				Stats: &models.ExportStats{
					TotalDecks: len(decks),
					TotalCards: len(cards),
					CardsByBox: flashcard.CountByBox(cards),
				},
			},
			Subject: models.SubjectDocument{Subject: *subject, Decks: docs},
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("subject export failed: %v", err)
		}
		return nil, err
	}
	return out, nil
}

func groupCards(cards []models.Flashcard) map[string][]models.Flashcard {
	out := make(map[string][]models.Flashcard)
	for _, c := range cards {
		out[c.DeckID] = append(out[c.DeckID], c)
	}
	return out
}

func cardsOrEmpty(cards []models.Flashcard) []models.Flashcard {
	if cards == nil {
		return []models.Flashcard{}
	}
	return cards
}
