// Package progression turns a completed assessment into XP, levels and
// achievement unlocks. It performs no I/O; callers serialize updates per user
// and persist the returned profile.
package progression

import (
	"fmt"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const (
	BaseXP              = 10
	XPPerLevel          = 100
	MaxScore            = 100
	HighScoreThreshold  = 80
	QuickLearnerSeconds = 300
)

// History is the prior state of a user that achievement rules depend on.
type History struct {
	PriorAttempts int
	Owned         map[domain.AchievementID]bool
}

// Outcome is the result of applying one assessment to a profile.
type Outcome struct {
	Profile   domain.Profile
	XPEarned  int
	LeveledUp bool
	NewLevel  int // zero unless LeveledUp
	Unlocked  []domain.Achievement
}

// Validate checks the attempt preconditions.
func Validate(attempt domain.AssessmentAttempt) error {
	if attempt.Score < 0 || attempt.Score > MaxScore {
		return fmt.Errorf("%w: score %d outside 0..%d", domain.ErrInvalidAttempt, attempt.Score, MaxScore)
	}
	if attempt.TotalQuestions <= 0 {
		return fmt.Errorf("%w: totalQuestions must be positive, got %d", domain.ErrInvalidAttempt, attempt.TotalQuestions)
	}
	if attempt.TimeTakenSeconds < 0 {
		return fmt.Errorf("%w: timeTaken must not be negative, got %d", domain.ErrInvalidAttempt, attempt.TimeTakenSeconds)
	}
	return nil
}

// XPFor returns the XP earned for a percent score.
func XPFor(score int) int {
	return BaseXP + score/10
}

// LevelFor returns the level implied by a total XP.
func LevelFor(xp int) int {
	return xp/XPPerLevel + 1
}

// Apply computes the progression update for one assessment. Achievements
// already in history.Owned are never reported again.
func Apply(profile domain.Profile, attempt domain.AssessmentAttempt, history History) (Outcome, error) {
	if err := Validate(attempt); err != nil {
		return Outcome{}, err
	}

	earned := XPFor(attempt.Score)
	updated := profile
	updated.XP = profile.XP + earned

	out := Outcome{Profile: updated, XPEarned: earned}
	if level := LevelFor(updated.XP); level > profile.Level {
		out.Profile.Level = level
		out.LeveledUp = true
		out.NewLevel = level
	}

	c := criteria{attempt: attempt, priorAttempts: history.PriorAttempts}
	for _, r := range catalog {
		if history.Owned[r.achievement.ID] {
			continue
		}
		if r.qualifies(c) {
			out.Unlocked = append(out.Unlocked, r.achievement)
		}
	}
	return out, nil
}
