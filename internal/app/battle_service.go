package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const (
	battlePoints = 10
	battleTTL    = 30 * time.Minute
)

var battleRoster = []struct{ id, name string }{
	{"ai_1", "CosmoKid"},
	{"ai_2", "StarSeeker"},
	{"ai_3", "GalaxyBrain"},
	{"ai_4", "NebulaKnight"},
}

// AnswerChecker validates one answer against the question bank.
type AnswerChecker interface {
	Validate(ctx context.Context, questionID int64, userAnswer string) (domain.AnswerVerdict, error)
}

// BattleService runs in-memory duels against simulated opponents. A correct
// answer scores for the player, a wrong one for the opponent.
type BattleService struct {
	answers AnswerChecker
	log     logrus.FieldLogger
	now     func() time.Time

	mu      sync.Mutex
	rnd     *rand.Rand
	battles map[string]*domain.Battle
}

func NewBattleService(answers AnswerChecker, log logrus.FieldLogger) *BattleService {
	return &BattleService{
		answers: answers,
		log:     log,
		now:     time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		battles: make(map[string]*domain.Battle),
	}
}

// Find starts a battle for userID against a random opponent.
func (s *BattleService) Find(_ context.Context, userID string) (domain.Battle, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.battles {
		if now.Sub(b.StartedAt) > battleTTL {
			delete(s.battles, id)
		}
	}

	pick := battleRoster[s.rnd.Intn(len(battleRoster))]
	b := &domain.Battle{
		ID:     "battle_" + uuid.NewString()[:8],
		UserID: userID,
		Opponent: domain.BattleOpponent{
			ID:     pick.id,
			Name:   pick.name,
			Level:  1 + s.rnd.Intn(10),
			Rating: 800 + s.rnd.Intn(401),
		},
		StartedAt: now,
	}
	s.battles[b.ID] = b
	s.log.WithFields(logrus.Fields{"battle_id": b.ID, "user_id": userID, "opponent": b.Opponent.Name}).Info("battle started")
	return *b, nil
}

// Move scores an answer in battleID. A zero questionID only reports the
// current score.
func (s *BattleService) Move(ctx context.Context, userID, battleID string, questionID int64, answer string) (domain.BattleUpdate, error) {
	if _, err := s.owned(userID, battleID); err != nil {
		return domain.BattleUpdate{}, err
	}

	var correct *bool
	if questionID != 0 {
		verdict, err := s.answers.Validate(ctx, questionID, answer)
		if err != nil {
			return domain.BattleUpdate{}, err
		}
		correct = &verdict.Correct
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[battleID]
	if !ok {
		return domain.BattleUpdate{}, fmt.Errorf("%w: %s", domain.ErrBattleNotFound, battleID)
	}
	if correct != nil {
		if *correct {
			b.UserScore += battlePoints
		} else {
			b.OpponentScore += battlePoints
		}
		b.CurrentQuestion++
	}
	return domain.BattleUpdate{
		BattleID:        b.ID,
		UserScore:       b.UserScore,
		OpponentScore:   b.OpponentScore,
		CurrentQuestion: b.CurrentQuestion,
		Correct:         correct,
	}, nil
}

func (s *BattleService) owned(userID, battleID string) (domain.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[battleID]
	if !ok || b.UserID != userID || s.now().Sub(b.StartedAt) > battleTTL {
		return domain.Battle{}, fmt.Errorf("%w: %s", domain.ErrBattleNotFound, battleID)
	}
	return *b, nil
}
