package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mnedoszytko/leitner-flashcards/internal/api"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository/sqlite"
	"github.com/mnedoszytko/leitner-flashcards/internal/services"
	"github.com/mnedoszytko/leitner-flashcards/internal/session"
	"github.com/mnedoszytko/leitner-flashcards/internal/testutil"
)

var now = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

type APISuite struct {
	suite.Suite
	db      *sql.DB
	handler http.Handler
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	subjectRepo := sqlite.NewSubjectRepository(s.db)
	deckRepo := sqlite.NewDeckRepository(s.db)
	cardRepo := sqlite.NewCardRepository(s.db)
	sessionRepo := sqlite.NewSessionRepository(s.db)
	opts := []services.Option{services.WithClock(func() time.Time { return now })}

	server := &api.Server{
		SubjectService:  services.NewSubjectService(subjectRepo, deckRepo, cardRepo, opts...),
		DeckService:     services.NewDeckService(deckRepo, subjectRepo, opts...),
		CardService:     services.NewCardService(cardRepo, deckRepo, opts...),
		ReviewService:   services.NewReviewService(cardRepo, sessionRepo, opts...),
		ExchangeService: services.NewExchangeService(sqlite.NewExchangeRepository(s.db), opts...),
		StatsService:    services.NewStatsService(subjectRepo, deckRepo, cardRepo, opts...),
		DB:              s.db,
		MaxImportBytes:  1 << 20,
	}
	s.handler = server.Routes()
}

func (s *APISuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *APISuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(dst), rec.Body.String())
}

func (s *APISuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	s.decode(rec, &body)
	return body.Error.Code
}

// seedDeck creates a subject and a deck with two new cards.
func (s *APISuite) seedDeck() (subject models.Subject, deck models.Deck) {
	rec := s.do(http.MethodPost, "/api/subjects", `{"name":"Geography"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.decode(rec, &subject)

	rec = s.do(http.MethodPost, "/api/decks", `{"name":"Capitals","subjectId":"`+subject.ID+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.decode(rec, &deck)

	for _, front := range []string{"France", "Peru"} {
		rec = s.do(http.MethodPost, "/api/cards", `{"front":"`+front+`","back":"?","hints":["starts with P"],"deckId":"`+deck.ID+`"}`)
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}
	return subject, deck
}

func (s *APISuite) TestHealthAndReady() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/readyz", "").Code)
}

func (s *APISuite) TestReady_DatabaseClosed() {
	s.Require().NoError(s.db.Close())
	s.Equal(http.StatusServiceUnavailable, s.do(http.MethodGet, "/readyz", "").Code)
}

func (s *APISuite) TestSecurityHeaders() {
	rec := s.do(http.MethodGet, "/healthz", "")
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func (s *APISuite) TestSubjectCRUD() {
	subject, deck := s.seedDeck()

	rec := s.do(http.MethodGet, "/api/subjects", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var summaries []models.SubjectSummary
	s.decode(rec, &summaries)
	s.Require().Len(summaries, 1)
	s.Equal(1, summaries[0].DeckCount)
	s.Equal(2, summaries[0].CardCount)

	rec = s.do(http.MethodPut, "/api/subjects/"+subject.ID, `{"name":"World Geography"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var edited models.Subject
	s.decode(rec, &edited)
	s.Equal("World Geography", edited.Name)

	rec = s.do(http.MethodDelete, "/api/subjects/"+subject.ID, "")
	s.Equal(http.StatusNoContent, rec.Code)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/subjects/"+subject.ID, "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/decks/"+deck.ID, "").Code)
}

func (s *APISuite) TestCreateSubject_Validation() {
	rec := s.do(http.MethodPost, "/api/subjects", `{"name":"  "}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(rec))

	rec = s.do(http.MethodPost, "/api/subjects", `{"name":`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestCards_FilterAndUpdate() {
	_, deck := s.seedDeck()

	rec := s.do(http.MethodGet, "/api/cards?deckId="+deck.ID, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var cards []models.Flashcard
	s.decode(rec, &cards)
	s.Require().Len(cards, 2)
	id := cards[0].ID

	rec = s.do(http.MethodPatch, "/api/cards/"+id, `{"front":"Francia","difficulty":3}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var edited models.Flashcard
	s.decode(rec, &edited)
	s.Equal("Francia", edited.Front)
	s.Equal(3, edited.Difficulty)
	s.Equal(1, edited.Box)

	rec = s.do(http.MethodGet, "/api/cards?box=1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &cards)
	s.Len(cards, 2)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/cards?box=x", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPatch, "/api/cards/"+id, `{"difficulty":9}`).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/cards/"+id, "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/cards/"+id, "").Code)
}

func (s *APISuite) TestUpdateCard_RejectsProgressFields() {
	_, deck := s.seedDeck()
	rec := s.do(http.MethodGet, "/api/cards?deckId="+deck.ID, "")
	var cards []models.Flashcard
	s.decode(rec, &cards)
	id := cards[0].ID

	for _, body := range []string{
		`{"box":3}`,
		`{"front":"x","reviewCount":50,"correctCount":50}`,
		`{"nextReview":"2099-01-01"}`,
		`{"lastReviewed":"2024-03-10T00:00:00.000Z"}`,
	} {
		rec = s.do(http.MethodPatch, "/api/cards/"+id, body)
		s.Equal(http.StatusBadRequest, rec.Code, body)
		s.Equal("BAD_REQUEST", s.errorCode(rec), body)
	}

	rec = s.do(http.MethodGet, "/api/cards/"+id, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var card models.Flashcard
	s.decode(rec, &card)
	s.Equal(cards[0].Front, card.Front)
	s.Equal(1, card.Box)
	s.Zero(card.ReviewCount)
	s.Zero(card.CorrectCount)
	s.Equal("2024-03-10", card.NextReview)
}

func (s *APISuite) TestSessionRecordFailure_ReturnsViewAndRetries() {
	_, deck := s.seedDeck()

	rec := s.do(http.MethodPost, "/api/sessions", `{"deckId":"`+deck.ID+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var view session.View
	s.decode(rec, &view)
	base := "/api/sessions/" + view.SessionID

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/skip", "").Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/reveal", "").Code)

	_, err := s.db.Exec(`ALTER TABLE sessions RENAME TO sessions_offline`)
	s.Require().NoError(err)

	rec = s.do(http.MethodPost, base+"/answer", `{"correct":true}`)
	s.Equal(http.StatusInternalServerError, rec.Code)
	var failed struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Session session.View `json:"session"`
	}
	s.decode(rec, &failed)
	s.Equal("RECORD_FAILED", failed.Error.Code)
	s.NotContains(failed.Error.Message, "no changes were written")
	s.Equal(session.StateComplete, failed.Session.State)
	s.True(failed.Session.Unsaved)
	s.Equal(1, failed.Session.Session.CardsReviewed)

	rec = s.do(http.MethodGet, "/api/statistics?deckId="+deck.ID, "")
	var stats models.CardStatistics
	s.decode(rec, &stats)
	s.Equal(1, stats.ByBox[2], "the answered card keeps its new box")

	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, base, "").Code)

	_, err = s.db.Exec(`ALTER TABLE sessions_offline RENAME TO sessions`)
	s.Require().NoError(err)

	rec = s.do(http.MethodPost, base+"/record", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &view)
	s.False(view.Unsaved)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, base, "").Code)
	rec = s.do(http.MethodGet, "/api/sessions?deckId="+deck.ID, "")
	var history []models.StudySession
	s.decode(rec, &history)
	s.Len(history, 1)
}

func (s *APISuite) TestCreateCard_UnknownDeck() {
	rec := s.do(http.MethodPost, "/api/cards", `{"front":"a","back":"b","deckId":"nope"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(rec))
}

func (s *APISuite) TestReviewSession() {
	_, deck := s.seedDeck()

	rec := s.do(http.MethodPost, "/api/sessions", `{"deckId":"`+deck.ID+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var view session.View
	s.decode(rec, &view)
	s.Equal(session.StatePresenting, view.State)
	s.Equal(2, view.Total)
	base := "/api/sessions/" + view.SessionID

	rec = s.do(http.MethodPost, base+"/answer", `{"correct":true}`)
	s.Equal(http.StatusConflict, rec.Code, "answer before reveal")

	rec = s.do(http.MethodPost, base+"/hint", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &view)
	s.Equal("starts with P", view.Hint)

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/reveal", "").Code)
	rec = s.do(http.MethodPost, base+"/answer", `{"correct":true}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &view)
	s.Equal(1, view.Index)

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/reveal", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, base+"/answer", `{}`).Code)
	rec = s.do(http.MethodPost, base+"/answer", `{"correct":false}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &view)
	s.Equal(session.StateComplete, view.State)
	s.Equal(2, view.Session.CardsReviewed)
	s.Equal(1, view.Session.CorrectAnswers)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, base, "").Code, "completed sessions leave the registry")

	rec = s.do(http.MethodGet, "/api/sessions?deckId="+deck.ID, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var history []models.StudySession
	s.decode(rec, &history)
	s.Len(history, 1)

	rec = s.do(http.MethodGet, "/api/due?deckId="+deck.ID, "")
	var due []models.Flashcard
	s.decode(rec, &due)
	s.Empty(due, "both cards were rescheduled")

	rec = s.do(http.MethodGet, "/api/statistics?deckId="+deck.ID, "")
	var stats models.CardStatistics
	s.decode(rec, &stats)
	s.Equal(1, stats.ByBox[1])
	s.Equal(1, stats.ByBox[2])
}

func (s *APISuite) TestStartSession_EmptyBody() {
	s.seedDeck()
	rec := s.do(http.MethodPost, "/api/sessions", "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var view session.View
	s.decode(rec, &view)
	s.Equal("all", view.Session.DeckID)
	s.Equal(2, view.Total)
}

func (s *APISuite) TestStatistics() {
	subject, _ := s.seedDeck()

	rec := s.do(http.MethodGet, "/api/statistics?subjectId="+subject.ID, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats models.CardStatistics
	s.decode(rec, &stats)
	s.Equal(2, stats.Total)
	s.Equal(2, stats.DueToday)

	rec = s.do(http.MethodGet, "/api/boxes/1", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/boxes/9", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/boxes/one", "").Code)
}

func (s *APISuite) TestExportImportRoundTrip() {
	subject, _ := s.seedDeck()

	rec := s.do(http.MethodGet, "/api/subjects/"+subject.ID+"/export", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(`attachment; filename="leitner-geography-`+time.Now().UTC().Format("2006-01-02")+`.json"`, rec.Header().Get("Content-Disposition"))
	exported := rec.Body.String()

	rec = s.do(http.MethodPost, "/api/import/preview", exported)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var summary models.ImportSummary
	s.decode(rec, &summary)
	s.Equal(2, summary.Cards)

	rec = s.do(http.MethodPost, "/api/import", exported)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var result models.ImportResult
	s.decode(rec, &result)
	s.True(result.Success)
	s.Contains(result.Message, "Geography (Imported")

	rec = s.do(http.MethodGet, "/api/export?includeStats=false", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var backup models.FullBackup
	s.decode(rec, &backup)
	s.Len(backup.Subjects, 2)
	s.Nil(backup.Metadata.Stats)

	rec = s.do(http.MethodPost, "/api/restore", rec.Body.String())
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &result)
	s.True(result.Stats.Cleared)
}

func (s *APISuite) TestImport_Failures() {
	rec := s.do(http.MethodPost, "/api/import", `{"version":"1.0"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	var result models.ImportResult
	s.decode(rec, &result)
	s.False(result.Success)
	s.NotEmpty(result.Error)

	rec = s.do(http.MethodPost, "/api/restore", `{"decks":[]}`)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/import", `{"decks":[]}`+strings.Repeat(" ", 1<<20))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
