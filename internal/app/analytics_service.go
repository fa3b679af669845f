package app

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
	"github.com/idfuturestars/StarGuideAI/internal/progression"
)

const recentEvents = 20

// AnalyticsService reads per-user progress summaries and records activity.
type AnalyticsService struct {
	store EventStore
	log   logrus.FieldLogger
}

func NewAnalyticsService(store EventStore, log logrus.FieldLogger) *AnalyticsService {
	return &AnalyticsService{store: store, log: log}
}

// Record stores an analytics event. Failures are logged, never returned.
func (s *AnalyticsService) Record(ctx context.Context, userID, eventType string, data any) {
	if err := s.store.RecordEvent(ctx, userID, eventType, data); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "event": eventType}).Warn("record analytics event")
	}
}

// Achievements returns the whole catalog annotated with the user's unlocks.
func (s *AnalyticsService) Achievements(ctx context.Context, userID string) ([]domain.AchievementStatus, error) {
	unlocked, err := s.store.UnlockedAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog := progression.Catalog()
	out := make([]domain.AchievementStatus, 0, len(catalog))
	for _, a := range catalog {
		status := domain.AchievementStatus{Achievement: a}
		if at, ok := unlocked[a.ID]; ok {
			at := at
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		out = append(out, status)
	}
	return out, nil
}

// Summary returns assessment aggregates, unlock progress and recent activity.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (domain.Analytics, error) {
	a, err := s.store.Analytics(ctx, userID, recentEvents)
	if err != nil {
		return domain.Analytics{}, err
	}
	a.AverageScore = round1(a.AverageScore)
	for i := range a.Subjects {
		a.Subjects[i].AvgScore = round1(a.Subjects[i].AvgScore)
	}
	a.Available = len(progression.Catalog())
	return a, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
