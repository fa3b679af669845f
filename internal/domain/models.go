package domain

import (
	"encoding/json"
	"time"
)

// Profile defaults applied at account creation.
const (
	DefaultLevel   = 1
	DefaultCredits = 100
)

// User is an account; demo users are created without a password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	IsDemo       bool      `json:"isDemo"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is the per-user progression record.
// Level is always floor(XP/100)+1; Streak and Credits are not mutated by progression.
type Profile struct {
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	Level        int       `json:"level"`
	XP           int       `json:"xp"`
	Credits      int       `json:"credits"`
	Streak       int       `json:"streak"`
	LastActivity time.Time `json:"lastActivity"`
}

// NewProfile returns a profile with account-creation defaults.
func NewProfile(userID, displayName string) Profile {
	return Profile{
		UserID:      userID,
		DisplayName: displayName,
		Level:       DefaultLevel,
		XP:          0,
		Credits:     DefaultCredits,
		Streak:      0,
	}
}

// AssessmentAttempt is one completed quiz session as submitted by a client.
type AssessmentAttempt struct {
	Type             string          `json:"type"`
	Subject          string          `json:"subject"`
	Score            int             `json:"score"` // percent correct, 0..100
	TotalQuestions   int             `json:"totalQuestions"`
	TimeTakenSeconds int             `json:"timeTaken"`
	Answers          json.RawMessage `json:"answers,omitempty"`
}

// AssessmentSummary is an archived attempt as shown in profile history.
type AssessmentSummary struct {
	Type           string    `json:"type"`
	Subject        string    `json:"subject"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
}

// AssessmentResult is what a submission returns to the client.
type AssessmentResult struct {
	XPEarned     int           `json:"xpEarned"`
	NewXP        int           `json:"newXP"`
	LevelUp      bool          `json:"levelUp"`
	NewLevel     *int          `json:"newLevel"`
	Achievements []Achievement `json:"achievements"`
}

// AchievementID identifies an entry in the static achievement catalog.
type AchievementID string

// Achievement is the display form of a catalog entry.
type Achievement struct {
	ID          AchievementID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
}

// AchievementStatus is a catalog entry annotated for one user.
type AchievementStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt"`
}

// Question is a question bank record. CorrectAnswer never leaves the server
// except in a validate-answer response for an incorrect answer.
type Question struct {
	ID            int64   `json:"id"`
	Subject       string  `json:"subject"`
	Difficulty    int     `json:"difficulty"` // 1..3
	Type          string  `json:"type"`
	Prompt        string  `json:"question"`
	CorrectAnswer string  `json:"-"`
	Hint          string  `json:"hint"`
	Explanation   string  `json:"-"`
	UsageCount    int     `json:"-"`
	SuccessRate   float64 `json:"-"`
}

// QuestionFilter selects random questions. Empty or "mixed" subject and zero
// difficulty match everything.
type QuestionFilter struct {
	Subject    string
	Difficulty int
	Count      int
}

// AnswerVerdict is the validate-answer response. CorrectAnswer is nil when the
// answer was correct.
type AnswerVerdict struct {
	Correct       bool    `json:"correct"`
	CorrectAnswer *string `json:"correctAnswer"`
	Explanation   string  `json:"explanation"`
}

// ProfileView is a profile plus the history shown on the profile page.
type ProfileView struct {
	User              User                `json:"user"`
	Profile           Profile             `json:"profile"`
	Achievements      int                 `json:"achievements"`
	RecentAssessments []AssessmentSummary `json:"recentAssessments"`
}

// Pod is a learning pod (chat group).
type Pod struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	CreatorID   string    `json:"creatorId"`
	CreatorName string    `json:"creatorName"`
	MaxMembers  int       `json:"maxMembers"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PodMessage is a chat message posted to a pod.
type PodMessage struct {
	PodID    int64     `json:"podId"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"timestamp"`
}

// SubjectStats aggregates a user's attempts in one subject.
type SubjectStats struct {
	Subject  string  `json:"subject"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avgScore"`
}

// AnalyticsEvent is a recorded user activity.
type AnalyticsEvent struct {
	Type      string          `json:"eventType"`
	Data      json.RawMessage `json:"eventData"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Analytics is the per-user analytics summary.
type Analytics struct {
	TotalAssessments int              `json:"totalAssessments"`
	AverageScore     float64          `json:"averageScore"`
	BestScore        int              `json:"bestScore"`
	TotalTime        int              `json:"totalTime"`
	Subjects         []SubjectStats   `json:"subjects"`
	Unlocked         int              `json:"achievementsUnlocked"`
	Available        int              `json:"achievementsTotal"`
	RecentActivity   []AnalyticsEvent `json:"recentActivity"`
}

// Event is a real-time message fanned out by the relay.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// DailyChallenge is one of a user's challenges for a UTC calendar day.
type DailyChallenge struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	XPReward    int    `json:"xpReward"`
	Completed   bool   `json:"completed"`
	Score       *int   `json:"score"`
	Date        string `json:"date"`
}

// Tournament is a time-boxed competition. Joined is relative to the caller.
type Tournament struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Participants    int       `json:"participants"`
	MaxParticipants int       `json:"maxParticipants"`
	PrizePool       int       `json:"prizePool"`
	Joined          bool      `json:"joined"`
}

// HelpTicket is a student's request for help from a teacher.
type HelpTicket struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Subject     string    `json:"subject"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BattleOpponent is a simulated rival.
type BattleOpponent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Rating int    `json:"rating"`
}

// Battle is a live question duel owned by one user.
type Battle struct {
	ID              string         `json:"battleId"`
	UserID          string         `json:"-"`
	Opponent        BattleOpponent `json:"opponent"`
	UserScore       int            `json:"userScore"`
	OpponentScore   int            `json:"opponentScore"`
	CurrentQuestion int            `json:"currentQuestion"`
	StartedAt       time.Time      `json:"startedAt"`
}

// BattleUpdate is the score after a move. Correct is nil when the move
// carried no answer.
type BattleUpdate struct {
	BattleID        string `json:"battleId"`
	UserScore       int    `json:"userScore"`
	OpponentScore   int    `json:"opponentScore"`
	CurrentQuestion int    `json:"currentQuestion"`
	Correct         *bool  `json:"correct,omitempty"`
}
