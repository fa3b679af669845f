package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
	"github.com/idfuturestars/StarGuideAI/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestion())}
	cache := NewQuestionCache(client, loader, time.Minute)

	q, err := cache.GetQuestion(context.Background(), 3)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("question:3") {
		t.Fatalf("expected question hash in redis")
	}
	if mr.TTL("question:3") <= 0 {
		t.Fatalf("expected ttl on question hash")
	}

	cached, err := cache.GetQuestion(context.Background(), 3)
	if err != nil {
		t.Fatalf("get cached question: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.CorrectAnswer != q.CorrectAnswer || cached.Explanation != q.Explanation || cached.Difficulty != 2 {
		t.Fatalf("cached question mismatch: %+v", cached)
	}
}

func TestQuestionCacheMissPropagatesLoaderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewQuestionCache(newClient(mr), memory.NewStaticQuestionLoader(), time.Minute)
	if _, err := cache.GetQuestion(context.Background(), 99); err != domain.ErrUnknownQuestion {
		t.Fatalf("expected unknown question, got %v", err)
	}
	if mr.Exists("question:99") {
		t.Fatalf("expected nothing cached for unknown question")
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestion(ctx, id)
}

func sampleQuestion() domain.Question {
	return domain.Question{
		ID:            3,
		Subject:       "science",
		Difficulty:    2,
		Type:          "short_answer",
		Prompt:        "What is the chemical symbol for gold?",
		CorrectAnswer: "Au",
		Hint:          "It comes from the Latin word aurum",
		Explanation:   "Gold's symbol Au comes from the Latin aurum",
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
