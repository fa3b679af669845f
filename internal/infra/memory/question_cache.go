package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// QuestionLoader fetches a question from the backing bank.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id int64) (domain.Question, error)
}

// QuestionCache keeps questions in process with a jittered TTL so
// validate-answer calls avoid a database read per request.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	rnd       *rand.Rand
	cache     map[int64]cachedQuestion
	nextSweep time.Time
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuestion),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	if q, ok := c.lookup(id); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		if q, ok := c.lookup(id); ok {
			return q, nil
		}

		q, err := c.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}

		now := c.clock()
		c.mu.Lock()
		c.sweepLocked(now)
		c.cache[id] = cachedQuestion{
			question:  q,
			expiresAt: now.Add(c.ttlWithJitterLocked()),
		}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) lookup(id int64) (domain.Question, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Question{}, false
	}
	return entry.question, true
}

// sweepLocked drops expired entries, at most once per TTL.
func (c *QuestionCache) sweepLocked(now time.Time) {
	if now.Before(c.nextSweep) {
		return
	}
	for id, entry := range c.cache {
		if !entry.expiresAt.After(now) {
			delete(c.cache, id)
		}
	}
	c.nextSweep = now.Add(c.ttl)
}

// StaticQuestionLoader serves a fixed set of questions (tests and demos).
type StaticQuestionLoader struct {
	questions map[int64]domain.Question
}

func NewStaticQuestionLoader(questions ...domain.Question) *StaticQuestionLoader {
	m := make(map[int64]domain.Question, len(questions))
	for _, q := range questions {
		m[q.ID] = q
	}
	return &StaticQuestionLoader{questions: m}
}

func (l *StaticQuestionLoader) LoadQuestion(_ context.Context, id int64) (domain.Question, error) {
	if q, ok := l.questions[id]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrUnknownQuestion
}

// ttlWithJitterLocked adds up to 10% to the TTL to spread expirations.
func (c *QuestionCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
