package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
	"github.com/idfuturestars/StarGuideAI/internal/infra/database"
	"github.com/idfuturestars/StarGuideAI/internal/infra/memory"
	"github.com/idfuturestars/StarGuideAI/internal/mentor"
	"github.com/idfuturestars/StarGuideAI/internal/relay"
)

type testServer struct {
	*httptest.Server
	store       *database.Store
	hub         *relay.Hub
	tournaments *app.TournamentService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log, _ := logtest.NewNullLogger()
	store := database.NewStore(db)
	hub := relay.NewHub(memory.NewPresenceTracker(), log)
	questions := app.NewQuestionService(store, memory.NewQuestionCache(store, time.Minute), log)
	tournaments := app.NewTournamentService(store, log)
	svc := Services{
		Accounts:    app.NewAccountService(store, log),
		Questions:   questions,
		Assessments: app.NewAssessmentService(store, log),
		Pods:        app.NewPodService(store, log),
		Analytics:   app.NewAnalyticsService(store, log),
		Challenges:  app.NewChallengeService(store, log),
		Tournaments: tournaments,
		Help:        app.NewHelpService(store, log),
		Battles:     app.NewBattleService(questions, log),
		Mentor:      mentor.New(mentor.Config{}, log),
	}
	srv := httptest.NewServer(NewServer(svc, hub, "test-secret", log).Handler())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, hub: hub, tournaments: tournaments}
}

// newClient returns a client with its own cookie jar, i.e. its own session.
func (s *testServer) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

// call sends body as JSON (nil for none) and decodes the response into a map.
func (s *testServer) call(t *testing.T, client *http.Client, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// register creates an account and leaves client signed in.
func (s *testServer) register(t *testing.T, client *http.Client, username string) string {
	t.Helper()
	status, body := s.call(t, client, http.MethodPost, "/api/register", map[string]any{
		"username": username,
		"email":    username + "@example.test",
		"password": "correct horse",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: %d %v", username, status, body)
	}
	return body["user"].(map[string]any)["id"].(string)
}

func (s *testServer) seedQuestion(t *testing.T, q domain.Question) int64 {
	t.Helper()
	ctx := context.Background()
	if _, err := s.store.InsertQuestions(ctx, []domain.Question{q}); err != nil {
		t.Fatalf("insert question: %v", err)
	}
	qs, err := s.store.RandomQuestions(ctx, domain.QuestionFilter{Subject: q.Subject, Count: 50})
	if err != nil || len(qs) == 0 {
		t.Fatalf("reload question: %v", err)
	}
	for _, got := range qs {
		if got.Prompt == q.Prompt {
			return got.ID
		}
	}
	t.Fatalf("question %q not found", q.Prompt)
	return 0
}
