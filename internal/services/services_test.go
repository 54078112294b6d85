package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository/sqlite"
	"github.com/mnedoszytko/leitner-flashcards/internal/services"
	"github.com/mnedoszytko/leitner-flashcards/internal/session"
	"github.com/mnedoszytko/leitner-flashcards/internal/testutil"
)

var now = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

type ServicesSuite struct {
	suite.Suite
	db       *sql.DB
	cardRepo repository.CardRepository
	subjects services.SubjectService
	decks    services.DeckService
	cards    services.CardService
	review   services.ReviewService
	exchange services.ExchangeService
	stats    services.StatsService
}

func (s *ServicesSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	subjectRepo := sqlite.NewSubjectRepository(s.db)
	deckRepo := sqlite.NewDeckRepository(s.db)
	cardRepo := sqlite.NewCardRepository(s.db)
	s.cardRepo = cardRepo
	sessionRepo := sqlite.NewSessionRepository(s.db)

	opts := []services.Option{services.WithClock(func() time.Time { return now }), services.WithExportSource("test")}
	s.subjects = services.NewSubjectService(subjectRepo, deckRepo, cardRepo, opts...)
	s.decks = services.NewDeckService(deckRepo, subjectRepo, opts...)
	s.cards = services.NewCardService(cardRepo, deckRepo, opts...)
	s.review = services.NewReviewService(cardRepo, sessionRepo, opts...)
	s.exchange = services.NewExchangeService(sqlite.NewExchangeRepository(s.db), opts...)
	s.stats = services.NewStatsService(subjectRepo, deckRepo, cardRepo, opts...)
}

func (s *ServicesSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

// seed creates one subject with one deck of three cards, two of them due.
func (s *ServicesSuite) seed() (models.Subject, models.Deck) {
	ctx := context.Background()
	subject, err := s.subjects.CreateSubject(ctx, services.SubjectInput{Name: "Chemistry", Icon: "⚗️"})
	s.Require().NoError(err)
	deck, err := s.decks.CreateDeck(ctx, services.DeckInput{Name: "Elements", SubjectID: subject.ID})
	s.Require().NoError(err)

	for _, front := range []string{"H", "He", "Li"} {
		_, err := s.cards.CreateCard(ctx, models.Flashcard{Front: front, Back: front + " back", DeckID: deck.ID})
		s.Require().NoError(err)
	}
	cards, err := s.cards.ListCards(ctx, models.CardFilter{DeckID: deck.ID})
	s.Require().NoError(err)
	_, err = s.cardRepo.Update(ctx, cards[2].ID, models.FlashcardUpdate{Box: testutil.IntPtr(2), NextReview: testutil.StrPtr("2024-03-12")})
	s.Require().NoError(err)
	return *subject, *deck
}

func (s *ServicesSuite) TestCreateCard_StartsFresh() {
	ctx := context.Background()
	_, deck := s.seed()

	card, err := s.cards.CreateCard(ctx, models.Flashcard{Front: "Be", Box: 4, ReviewCount: 9, CorrectCount: 9, DeckID: deck.ID})
	s.Require().NoError(err)
	s.NotEmpty(card.ID)
	s.Equal(models.CardTypeBasic, card.Type)
	s.Equal(1, card.Box)
	s.Zero(card.ReviewCount)
	s.Equal("2024-03-10", card.NextReview)

	_, err = s.cards.CreateCard(ctx, models.Flashcard{Front: "x", DeckID: "missing"})
	s.True(errors.IsValidation(err))

	_, err = s.cards.UpdateCard(ctx, card.ID, models.CardEdit{Difficulty: testutil.IntPtr(9)})
	s.True(errors.IsValidation(err))

	_, err = s.cards.UpdateCard(ctx, "ghost", models.CardEdit{Front: testutil.StrPtr("x")})
	s.True(errors.IsNotFound(err))
}

func (s *ServicesSuite) TestUpdateCard_KeepsReviewProgress() {
	ctx := context.Background()
	_, deck := s.seed()

	cards, err := s.cards.ListCards(ctx, models.CardFilter{DeckID: deck.ID, Box: 2})
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	before := cards[0]

	empty := models.CardType("")
	edited, err := s.cards.UpdateCard(ctx, before.ID, models.CardEdit{
		Type:  &empty,
		Front: testutil.StrPtr("Lithium"),
		Hints: &[]string{"alkali metal"},
	})
	s.Require().NoError(err)
	s.Equal("Lithium", edited.Front)
	s.Equal(models.CardTypeBasic, edited.Type)
	s.Equal([]string{"alkali metal"}, edited.Hints)
	s.Equal(before.Box, edited.Box)
	s.Equal(before.NextReview, edited.NextReview)
	s.Equal(before.ReviewCount, edited.ReviewCount)
	s.Equal(before.CorrectCount, edited.CorrectCount)
}

func (s *ServicesSuite) TestSubjects() {
	ctx := context.Background()
	subject, _ := s.seed()

	_, err := s.subjects.CreateSubject(ctx, services.SubjectInput{Name: "   "})
	s.True(errors.IsValidation(err))

	list, err := s.subjects.ListSubjects(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(1, list[0].DeckCount)
	s.Equal(3, list[0].CardCount)
	s.Equal(2, list[0].DueCount)

	edited, err := s.subjects.EditSubject(ctx, subject.ID, services.SubjectInput{Name: "Chem"})
	s.Require().NoError(err)
	s.Equal("Chem", edited.Name)
	s.Equal(subject.CreatedAt, edited.CreatedAt)

	s.Require().NoError(s.subjects.DeleteSubjectCascade(ctx, subject.ID))
	cards, err := s.cards.ListCards(ctx, models.CardFilter{})
	s.Require().NoError(err)
	s.Empty(cards)

	s.True(errors.IsNotFound(s.subjects.DeleteSubjectCascade(ctx, subject.ID)))
}

func (s *ServicesSuite) TestDecks() {
	ctx := context.Background()

	_, err := s.decks.CreateDeck(ctx, services.DeckInput{Name: "D", SubjectID: "nope"})
	s.True(errors.IsValidation(err))

	deck, err := s.decks.CreateDeck(ctx, services.DeckInput{Name: " Loose ", Tags: []string{"t"}})
	s.Require().NoError(err)
	s.Equal("Loose", deck.Name)

	standalone, err := s.decks.ListDecks(ctx, models.DeckFilter{Standalone: true})
	s.Require().NoError(err)
	s.Len(standalone, 1)

	s.Require().NoError(s.decks.DeleteDeck(ctx, deck.ID))
	s.True(errors.IsNotFound(s.decks.DeleteDeck(ctx, deck.ID)))
}

func (s *ServicesSuite) TestReviewSession() {
	ctx := context.Background()
	_, deck := s.seed()

	due, err := s.review.DueCards(ctx, models.Scope{DeckID: deck.ID})
	s.Require().NoError(err)
	s.Len(due, 2)

	v, err := s.review.StartSession(ctx, services.StartRequest{DeckID: deck.ID})
	s.Require().NoError(err)
	s.Equal(2, v.Total)
	id := v.SessionID

	_, err = s.review.AnswerCard(ctx, id, true)
	s.True(errors.HasCode(err, errors.ErrCodeConflict))

	_, err = s.review.Reveal(ctx, id)
	s.Require().NoError(err)
	v, err = s.review.AnswerCard(ctx, id, true)
	s.Require().NoError(err)
	s.Equal(1, v.Index)

	_, err = s.review.Reveal(ctx, id)
	s.Require().NoError(err)
	v, err = s.review.AnswerCard(ctx, id, false)
	s.Require().NoError(err)
	s.Equal(session.StateComplete, v.State)

	_, err = s.review.GetSession(ctx, id)
	s.True(errors.IsNotFound(err), "completed sessions leave the registry")

	history, err := s.review.History(ctx, deck.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(2, history[0].CardsReviewed)
	s.Equal(1, history[0].CorrectAnswers)
	s.Equal(models.BoxProgress{Promoted: 1, Demoted: 0}, history[0].BoxProgress[1])

	stats, err := s.stats.GetStatistics(ctx, models.Scope{DeckID: deck.ID})
	s.Require().NoError(err)
	s.Equal(map[int]int{1: 1, 2: 2, 3: 0, 4: 0}, stats.ByBox)
	s.Equal(0, stats.DueToday)
	s.Equal(50, stats.AverageCorrectRate)
}

func (s *ServicesSuite) TestReviewSession_DeletedCardCanBeSkipped() {
	ctx := context.Background()
	_, deck := s.seed()

	v, err := s.review.StartSession(ctx, services.StartRequest{DeckID: deck.ID})
	s.Require().NoError(err)
	s.Require().NoError(s.cards.DeleteCard(ctx, v.Card.ID))

	_, err = s.review.Reveal(ctx, v.SessionID)
	s.Require().NoError(err)
	_, err = s.review.AnswerCard(ctx, v.SessionID, true)
	s.True(errors.IsNotFound(err))

	next, err := s.review.Skip(ctx, v.SessionID)
	s.Require().NoError(err)
	s.Equal(1, next.Index)
}

func (s *ServicesSuite) TestStartSession_BoxAndEmpty() {
	ctx := context.Background()
	subject, _ := s.seed()

	v, err := s.review.StartSession(ctx, services.StartRequest{Box: 2})
	s.Require().NoError(err)
	s.Equal(session.StateComplete, v.State, "the box 2 card is not due yet")

	v, err = s.review.StartSession(ctx, services.StartRequest{SubjectID: subject.ID, Box: 1})
	s.Require().NoError(err)
	s.Equal(2, v.Total)
	s.Equal("subject-"+subject.ID, v.Session.DeckID)

	_, err = s.review.StartSession(ctx, services.StartRequest{Box: 5})
	s.True(errors.IsValidation(err))
}

func (s *ServicesSuite) TestImport_InvalidDocumentLeavesStoreUntouched() {
	ctx := context.Background()
	s.seed()

	result, err := s.exchange.ImportDocument(ctx, []byte(`{"metadata":{"created":"x"},"cards":[]}`), models.ImportOptions{ClearExisting: true})
	s.True(errors.IsValidation(err))
	s.False(result.Success)
	s.NotEmpty(result.Error)

	cards, err := s.cards.ListCards(ctx, models.CardFilter{})
	s.Require().NoError(err)
	s.Len(cards, 3)
}

func (s *ServicesSuite) TestImport_StandaloneDecksResetProgress() {
	ctx := context.Background()

	raw := `{"version":"1.0","decks":[{"id":"d1","name":"Verbs","cards":[{"id":"c1","front":"ser","back":"to be","box":4,"reviewCount":3,"correctCount":3,"nextReview":"2030-01-01"}]}]}`
	result, err := s.exchange.ImportDocument(ctx, []byte(raw), models.ImportOptions{})
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal("standalone-decks", result.Kind)
	s.Equal(1, result.Stats.Cards)

	card, err := s.cards.GetCard(ctx, "c1")
	s.Require().NoError(err)
	s.Equal(1, card.Box)
	s.Zero(card.ReviewCount)
	s.Equal("2024-03-10", card.NextReview)
}

func (s *ServicesSuite) TestRestoreAndExport() {
	ctx := context.Background()
	subject, _ := s.seed()

	_, err := s.exchange.RestoreBackup(ctx, []byte(`{"decks":[]}`))
	s.True(errors.HasCode(err, errors.ErrCodeStructuralMismatch))

	backup, err := s.exchange.ExportFullBackup(ctx, true)
	s.Require().NoError(err)
	s.Equal("2024-03-10T15:30:00.000Z", backup.Metadata.Created)
	s.Equal("test", backup.Metadata.Source)

	single, err := s.exchange.ExportSubject(ctx, subject.ID)
	s.Require().NoError(err)
	s.Equal("Chemistry", single.Metadata.SubjectName)

	_, err = s.exchange.ExportSubject(ctx, "sX")
	s.True(errors.IsNotFound(err))

	preview, err := s.exchange.PreviewImport(ctx, []byte(`{"subject":{"id":"a","name":"N","decks":[{"id":"d","name":"D","cards":[{"id":"c"}]}]}}`), models.ImportOptions{ClearExisting: true})
	s.Require().NoError(err)
	s.Equal(models.ImportSummary{Kind: "single-subject", Subjects: 1, Decks: 1, Cards: 1}, *preview)
}

func (s *ServicesSuite) TestBoxBreakdown() {
	ctx := context.Background()
	subject, _ := s.seed()

	breakdown, err := s.stats.GetBoxBreakdown(ctx, 1)
	s.Require().NoError(err)
	s.Equal(2, breakdown.TotalCards)
	s.Equal(2, breakdown.TotalDue)
	s.Require().Len(breakdown.Subjects, 1)
	s.Equal(subject.ID, breakdown.Subjects[0].Subject.ID)

	empty, err := s.stats.GetBoxBreakdown(ctx, 4)
	s.Require().NoError(err)
	s.Empty(empty.Subjects)

	_, err = s.stats.GetBoxBreakdown(ctx, 0)
	s.True(errors.IsValidation(err))
}

func TestServicesSuite(t *testing.T) {
	suite.Run(t, new(ServicesSuite))
}
