package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const challengeDateLayout = "2006-01-02"

type challengeInfo struct {
	Type        string
	Name        string
	Description string
	XPReward    int
}

var dailyChallenges = []challengeInfo{
	{Type: "math", Name: "Math Sprint", Description: "Solve 10 math problems in 5 minutes", XPReward: 50},
	{Type: "science", Name: "Science Explorer", Description: "Answer 10 science questions", XPReward: 60},
	{Type: "mixed", Name: "Knowledge Rush", Description: "Mixed subject speed round", XPReward: 75},
}

// ChallengeService hands out the daily challenge set.
type ChallengeService struct {
	store ChallengeStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewChallengeService(store ChallengeStore, log logrus.FieldLogger) *ChallengeService {
	return &ChallengeService{store: store, log: log, now: time.Now}
}

// Today returns the user's challenges for the current UTC day, creating them
// on the first call of the day.
func (s *ChallengeService) Today(ctx context.Context, userID string) ([]domain.DailyChallenge, error) {
	day := s.now().UTC().Format(challengeDateLayout)
	types := make([]string, 0, len(dailyChallenges))
	byType := make(map[string]challengeInfo, len(dailyChallenges))
	for _, c := range dailyChallenges {
		types = append(types, c.Type)
		byType[c.Type] = c
	}

	rows, err := s.store.EnsureDailyChallenges(ctx, userID, day, types)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyChallenge, 0, len(rows))
	for _, r := range rows {
		info, ok := byType[r.Type]
		if !ok {
			s.log.WithFields(logrus.Fields{"user_id": userID, "type": r.Type}).Warn("unknown challenge type")
			continue
		}
		r.Name, r.Description, r.XPReward = info.Name, info.Description, info.XPReward
		out = append(out, r)
	}
	return out, nil
}
