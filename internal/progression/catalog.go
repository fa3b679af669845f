package progression

import "github.com/idfuturestars/StarGuideAI/internal/domain"

// Achievement IDs.
const (
	FirstSteps    domain.AchievementID = "first-steps"
	HighScorer    domain.AchievementID = "high-scorer"
	Perfectionist domain.AchievementID = "perfectionist"
	QuickLearner  domain.AchievementID = "quick-learner"
)

// criteria is everything an achievement rule may look at.
type criteria struct {
	attempt       domain.AssessmentAttempt
	priorAttempts int
}

type rule struct {
	achievement domain.Achievement
	qualifies   func(criteria) bool
}

// catalog is the single achievement table: display metadata and unlock
// conditions. Order is the order unlocks are reported in.
var catalog = []rule{
	{
		achievement: domain.Achievement{ID: FirstSteps, Name: "First Steps", Description: "Complete your first assessment"},
		qualifies:   func(c criteria) bool { return c.priorAttempts+1 == 1 },
	},
	{
		achievement: domain.Achievement{ID: HighScorer, Name: "High Scorer", Description: "Score 80% or higher"},
		qualifies:   func(c criteria) bool { return c.attempt.Score >= HighScoreThreshold },
	},
	{
		achievement: domain.Achievement{ID: Perfectionist, Name: "Perfectionist", Description: "Achieve a perfect score"},
		qualifies:   func(c criteria) bool { return c.attempt.Score == MaxScore },
	},
	{
		achievement: domain.Achievement{ID: QuickLearner, Name: "Quick Learner", Description: "Complete an assessment in under 5 minutes"},
		qualifies:   func(c criteria) bool { return c.attempt.TimeTakenSeconds < QuickLearnerSeconds },
	},
}

// Catalog returns every achievement in display order.
func Catalog() []domain.Achievement {
	out := make([]domain.Achievement, 0, len(catalog))
	for _, r := range catalog {
		out = append(out, r.achievement)
	}
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id domain.AchievementID) (domain.Achievement, bool) {
	for _, r := range catalog {
		if r.achievement.ID == id {
			return r.achievement, true
		}
	}
	return domain.Achievement{}, false
}
