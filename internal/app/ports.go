package app

import (
	"context"
	"time"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// QuestionRepository resolves a single question, usually through a cache.
type QuestionRepository interface {
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
}

// QuestionStore is the durable question bank.
type QuestionStore interface {
	RandomQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	// RecordOutcome folds one validated answer into the question's running statistics.
	RecordOutcome(ctx context.Context, id int64, correct bool) error
}

// ProgressStore serializes progression updates per user.
type ProgressStore interface {
	// WithinUser runs fn in one transaction holding the user's profile row.
	// Nothing fn wrote is kept if it returns an error.
	WithinUser(ctx context.Context, userID string, fn func(ctx context.Context, tx ProgressTx) error) error
}

// ProgressTx is the per-user view of the store inside WithinUser.
type ProgressTx interface {
	Profile(ctx context.Context) (domain.Profile, error)
	AttemptCount(ctx context.Context) (int, error)
	OwnedAchievements(ctx context.Context) (map[domain.AchievementID]bool, error)
	SaveAssessment(ctx context.Context, attempt domain.AssessmentAttempt, completedAt time.Time) error
	SaveProfile(ctx context.Context, profile domain.Profile) error
	// UnlockAchievement inserts the unlock if absent and reports whether it did.
	UnlockAchievement(ctx context.Context, id domain.AchievementID, at time.Time) (bool, error)
	RecordEvent(ctx context.Context, eventType string, data any) error
}

// AccountStore persists users and their profiles.
type AccountStore interface {
	CreateUser(ctx context.Context, user domain.User, profile domain.Profile) error
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
	ProfileView(ctx context.Context, userID string, recent int) (domain.ProfileView, error)
}

// PodStore persists learning pods, memberships and chat history.
type PodStore interface {
	CreatePod(ctx context.Context, pod domain.Pod) (domain.Pod, error)
	ListPods(ctx context.Context, limit int) ([]domain.Pod, error)
	// JoinPod is a no-op for existing members.
	JoinPod(ctx context.Context, podID int64, userID string) error
	SaveMessage(ctx context.Context, msg domain.PodMessage) error
}

// EventStore records analytics events and reads per-user aggregates.
type EventStore interface {
	RecordEvent(ctx context.Context, userID, eventType string, data any) error
	Analytics(ctx context.Context, userID string, recent int) (domain.Analytics, error)
	UnlockedAchievements(ctx context.Context, userID string) (map[domain.AchievementID]time.Time, error)
}

// ChallengeStore persists per-day challenge rows.
type ChallengeStore interface {
	// EnsureDailyChallenges inserts any missing rows for day and returns all of them.
	EnsureDailyChallenges(ctx context.Context, userID, day string, types []string) ([]domain.DailyChallenge, error)
}

// TournamentStore persists tournaments and their participants.
type TournamentStore interface {
	CreateTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error)
	// ActiveTournaments lists tournaments that have not ended at now, with
	// Joined set for userID.
	ActiveTournaments(ctx context.Context, userID string, now time.Time) ([]domain.Tournament, error)
	// JoinTournament is a no-op for existing participants.
	JoinTournament(ctx context.Context, tournamentID int64, userID string, now time.Time) error
}

// HelpStore persists help tickets.
type HelpStore interface {
	CreateHelpTicket(ctx context.Context, ticket domain.HelpTicket) (domain.HelpTicket, error)
}
