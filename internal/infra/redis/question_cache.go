package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// QuestionLoader fetches a question from the backing bank.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id int64) (domain.Question, error)
}

// QuestionCache caches questions in Redis, one hash per question, and falls
// back to the loader on a miss:
//
//	HSET question:{id} subject .. answer .. explanation ..
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	key := questionKey(id)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return questionFromHash(id, fields), nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return questionFromHash(id, fields), nil
		}

		q, err := c.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key, questionToHash(q))
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func questionKey(id int64) string {
	return "question:" + strconv.FormatInt(id, 10)
}

func questionToHash(q domain.Question) map[string]interface{} {
	return map[string]interface{}{
		"subject":     q.Subject,
		"difficulty":  q.Difficulty,
		"type":        q.Type,
		"prompt":      q.Prompt,
		"answer":      q.CorrectAnswer,
		"hint":        q.Hint,
		"explanation": q.Explanation,
	}
}

// questionFromHash rebuilds the cached question; usage statistics are not cached.
func questionFromHash(id int64, fields map[string]string) domain.Question {
	difficulty, _ := strconv.Atoi(fields["difficulty"])
	return domain.Question{
		ID:            id,
		Subject:       fields["subject"],
		Difficulty:    difficulty,
		Type:          fields["type"],
		Prompt:        fields["prompt"],
		CorrectAnswer: fields["answer"],
		Hint:          fields["hint"],
		Explanation:   fields["explanation"],
	}
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
