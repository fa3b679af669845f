package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
	"github.com/idfuturestars/StarGuideAI/internal/progression"
)

const defaultAssessmentType = "assessment"

// Analytics event types.
const (
	EventAssessmentDone = "assessment_completed"
	EventMentorChat     = "ai_chat"
)

// AssessmentService turns submitted assessments into progression updates.
type AssessmentService struct {
	store ProgressStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewAssessmentService(store ProgressStore, log logrus.FieldLogger) *AssessmentService {
	return &AssessmentService{store: store, log: log, now: time.Now}
}

// Submit archives the attempt and applies XP, level and achievement changes in
// one per-user transaction. Invalid attempts are rejected before anything is
// written.
func (s *AssessmentService) Submit(ctx context.Context, userID string, attempt domain.AssessmentAttempt) (domain.AssessmentResult, error) {
	if err := progression.Validate(attempt); err != nil {
		return domain.AssessmentResult{}, err
	}
	if attempt.Type == "" {
		attempt.Type = defaultAssessmentType
	}

	var result domain.AssessmentResult
	err := s.store.WithinUser(ctx, userID, func(ctx context.Context, tx ProgressTx) error {
		profile, err := tx.Profile(ctx)
		if err != nil {
			return err
		}
		prior, err := tx.AttemptCount(ctx)
		if err != nil {
			return err
		}
		owned, err := tx.OwnedAchievements(ctx)
		if err != nil {
			return err
		}

		out, err := progression.Apply(profile, attempt, progression.History{PriorAttempts: prior, Owned: owned})
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.SaveAssessment(ctx, attempt, now); err != nil {
			return err
		}
		out.Profile.LastActivity = now
		if err := tx.SaveProfile(ctx, out.Profile); err != nil {
			return err
		}

		unlocked := make([]domain.Achievement, 0, len(out.Unlocked))
		for _, a := range out.Unlocked {
			inserted, err := tx.UnlockAchievement(ctx, a.ID, now)
			if err != nil {
				return err
			}
			if inserted {
				unlocked = append(unlocked, a)
			}
		}

		if err := tx.RecordEvent(ctx, EventAssessmentDone, map[string]any{
			"subject":   attempt.Subject,
			"score":     attempt.Score,
			"xp_earned": out.XPEarned,
		}); err != nil {
			return err
		}

		result = domain.AssessmentResult{
			XPEarned:     out.XPEarned,
			NewXP:        out.Profile.XP,
			LevelUp:      out.LeveledUp,
			Achievements: unlocked,
		}
		if out.LeveledUp {
			level := out.NewLevel
			result.NewLevel = &level
		}
		return nil
	})
	if err != nil {
		return domain.AssessmentResult{}, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"score":     attempt.Score,
		"xp_earned": result.XPEarned,
		"level_up":  result.LevelUp,
		"unlocked":  len(result.Achievements),
	}).Info("assessment submitted")
	return result, nil
}
