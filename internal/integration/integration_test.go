package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
	"github.com/idfuturestars/StarGuideAI/internal/infra/database"
	pgloader "github.com/idfuturestars/StarGuideAI/internal/infra/postgres"
	infraredis "github.com/idfuturestars/StarGuideAI/internal/infra/redis"
	"github.com/idfuturestars/StarGuideAI/internal/progression"
	"github.com/idfuturestars/StarGuideAI/internal/questionbank"
	"github.com/idfuturestars/StarGuideAI/internal/relay"
)

func TestAssessmentEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := database.Open(ctx, database.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := database.NewStore(db)
	seeded, err := questionbank.SeedIfEmpty(ctx, store)
	if err != nil || seeded == 0 {
		t.Fatalf("seed: n=%d err=%v", seeded, err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	log, _ := logtest.NewNullLogger()
	questionCache := infraredis.NewQuestionCache(redisClient, pgloader.NewQuestionLoader(pool), 5*time.Minute)
	questions := app.NewQuestionService(store, questionCache, log)
	accounts := app.NewAccountService(store, log)
	assessments := app.NewAssessmentService(store, log)

	user, err := accounts.Register(ctx, "nova", "nova@example.test", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	served, err := questions.Questions(ctx, domain.QuestionFilter{Subject: "math", Count: 1})
	if err != nil || len(served) != 1 {
		t.Fatalf("questions: %v %v", served, err)
	}
	stored, err := store.LoadQuestion(ctx, served[0].ID)
	if err != nil {
		t.Fatalf("load question: %v", err)
	}
	verdict, err := questions.Validate(ctx, stored.ID, "  "+strings.ToUpper(stored.CorrectAnswer)+" ")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !verdict.Correct || verdict.CorrectAnswer != nil {
		t.Fatalf("expected correct verdict, got %+v", verdict)
	}

	// Concurrent submissions for one user serialize on the profile row.
	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstHit int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := assessments.Submit(ctx, user.ID, domain.AssessmentAttempt{
				Subject: "math", Score: 100, TotalQuestions: 10, TimeTakenSeconds: 120,
			})
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			for _, a := range res.Achievements {
				if a.ID == progression.FirstSteps {
					mu.Lock()
					firstHit++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	view, err := accounts.Profile(ctx, user.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if view.Profile.XP != workers*20 {
		t.Fatalf("expected %d xp, got %d", workers*20, view.Profile.XP)
	}
	if view.Profile.Level != workers*20/100+1 {
		t.Fatalf("unexpected level %d", view.Profile.Level)
	}
	if firstHit != 1 {
		t.Fatalf("first-steps reported %d times", firstHit)
	}
	if view.Achievements != len(progression.Catalog()) {
		t.Fatalf("expected every achievement, got %d", view.Achievements)
	}
}

func TestPresenceSharedAcrossHubs(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	log, _ := logtest.NewNullLogger()
	hubA := relay.NewHub(infraredis.NewPresenceTracker(client, time.Minute), log)
	hubB := relay.NewHub(infraredis.NewPresenceTracker(client, time.Minute), log)

	if _, err := hubA.Register(ctx, "u1", "Nova"); err != nil {
		t.Fatalf("register a: %v", err)
	}
	sub, err := hubB.Register(ctx, "u2", "Orion")
	if err != nil {
		t.Fatalf("register b: %v", err)
	}
	n, err := hubB.OnlineCount(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 online across instances, got %d (%v)", n, err)
	}

	hubB.Unregister(ctx, sub.ID)
	n, _ = hubA.OnlineCount(ctx)
	if n != 1 {
		t.Fatalf("expected 1 online, got %d", n)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "starguide", "POSTGRES_PASSWORD": "starpass", "POSTGRES_DB": "starguide"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://starguide:starpass@%s:%s/starguide?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
