package database

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            string    `bun:"id,pk"`
	Email         string    `bun:"email"`
	Username      string    `bun:"username"`
	PasswordHash  string    `bun:"password_hash"`
	Role          string    `bun:"role"`
	IsDemo        bool      `bun:"is_demo"`
	CreatedAt     time.Time `bun:"created_at"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		Role:         m.Role,
		IsDemo:       m.IsDemo,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

type profileModel struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up"`
	UserID        string    `bun:"user_id,pk"`
	DisplayName   string    `bun:"display_name"`
	Level         int       `bun:"level"`
	XP            int       `bun:"xp"`
	Credits       int       `bun:"credits"`
	Streak        int       `bun:"streak"`
	LastActivity  time.Time `bun:"last_activity"`
	Settings      string    `bun:"settings"`
}

func newProfileModel(p domain.Profile, now time.Time) profileModel {
	last := p.LastActivity
	if last.IsZero() {
		last = now
	}
	return profileModel{
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		Level:        p.Level,
		XP:           p.XP,
		Credits:      p.Credits,
		Streak:       p.Streak,
		LastActivity: last.UTC(),
		Settings:     "{}",
	}
}

func (m profileModel) toDomain() domain.Profile {
	return domain.Profile{
		UserID:       m.UserID,
		DisplayName:  m.DisplayName,
		Level:        m.Level,
		XP:           m.XP,
		Credits:      m.Credits,
		Streak:       m.Streak,
		LastActivity: m.LastActivity,
	}
}

type assessmentModel struct {
	bun.BaseModel  `bun:"table:assessments,alias:a"`
	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         string    `bun:"user_id"`
	Type           string    `bun:"type"`
	Subject        string    `bun:"subject"`
	Score          int       `bun:"score"`
	TotalQuestions int       `bun:"total_questions"`
	TimeTaken      int       `bun:"time_taken"`
	QuestionsData  string    `bun:"questions_data"`
	CompletedAt    time.Time `bun:"completed_at"`
}

func (m assessmentModel) toSummary() domain.AssessmentSummary {
	return domain.AssessmentSummary{
		Type:           m.Type,
		Subject:        m.Subject,
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		CompletedAt:    m.CompletedAt,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Subject       string    `bun:"subject"`
	Difficulty    int       `bun:"difficulty"`
	Type          string    `bun:"type"`
	Question      string    `bun:"question"`
	Options       string    `bun:"options"`
	CorrectAnswer string    `bun:"correct_answer"`
	Explanation   string    `bun:"explanation"`
	Hint          string    `bun:"hint"`
	Tags          string    `bun:"tags"`
	UsageCount    int       `bun:"usage_count"`
	SuccessRate   float64   `bun:"success_rate"`
	CreatedAt     time.Time `bun:"created_at"`
}

func newQuestionModel(q domain.Question, now time.Time) questionModel {
	return questionModel{
		Subject:       q.Subject,
		Difficulty:    q.Difficulty,
		Type:          q.Type,
		Question:      q.Prompt,
		Options:       "[]",
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Hint:          q.Hint,
		UsageCount:    q.UsageCount,
		SuccessRate:   q.SuccessRate,
		CreatedAt:     now.UTC(),
	}
}

func (m questionModel) toDomain() domain.Question {
	return domain.Question{
		ID:            m.ID,
		Subject:       m.Subject,
		Difficulty:    m.Difficulty,
		Type:          m.Type,
		Prompt:        m.Question,
		CorrectAnswer: m.CorrectAnswer,
		Hint:          m.Hint,
		Explanation:   m.Explanation,
		UsageCount:    m.UsageCount,
		SuccessRate:   m.SuccessRate,
	}
}

type achievementModel struct {
	bun.BaseModel `bun:"table:achievements,alias:ach"`
	UserID        string    `bun:"user_id,pk"`
	AchievementID string    `bun:"achievement_id,pk"`
	UnlockedAt    time.Time `bun:"unlocked_at"`
}

type podModel struct {
	bun.BaseModel `bun:"table:learning_pods,alias:p"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name"`
	Description   string    `bun:"description"`
	Subject       string    `bun:"subject"`
	CreatorID     string    `bun:"creator_id"`
	MaxMembers    int       `bun:"max_members"`
	IsActive      bool      `bun:"is_active"`
	CreatedAt     time.Time `bun:"created_at"`
}

// podRow is a pod joined with its creator name and member count.
type podRow struct {
	podModel    `bun:",extend"`
	CreatorName string `bun:"creator_name,scanonly"`
	MemberCount int    `bun:"member_count,scanonly"`
}

func (r podRow) toDomain() domain.Pod {
	return domain.Pod{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Subject:     r.Subject,
		CreatorID:   r.CreatorID,
		CreatorName: r.CreatorName,
		MaxMembers:  r.MaxMembers,
		MemberCount: r.MemberCount,
		CreatedAt:   r.CreatedAt,
	}
}

type podMemberModel struct {
	bun.BaseModel `bun:"table:pod_members,alias:pm"`
	PodID         int64     `bun:"pod_id,pk"`
	UserID        string    `bun:"user_id,pk"`
	Role          string    `bun:"role"`
	JoinedAt      time.Time `bun:"joined_at"`
}

type podMessageModel struct {
	bun.BaseModel `bun:"table:pod_messages,alias:msg"`
	ID            int64     `bun:"id,pk,autoincrement"`
	PodID         int64     `bun:"pod_id"`
	UserID        string    `bun:"user_id"`
	Message       string    `bun:"message"`
	CreatedAt     time.Time `bun:"created_at"`
}

type eventModel struct {
	bun.BaseModel `bun:"table:analytics_events,alias:ev"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id"`
	EventType     string    `bun:"event_type"`
	EventData     string    `bun:"event_data"`
	CreatedAt     time.Time `bun:"created_at"`
}

func (m eventModel) toDomain() domain.AnalyticsEvent {
	return domain.AnalyticsEvent{
		Type:      m.EventType,
		Data:      json.RawMessage(m.EventData),
		CreatedAt: m.CreatedAt,
	}
}

type dailyChallengeModel struct {
	bun.BaseModel `bun:"table:daily_challenges,alias:dc"`
	ID            int64      `bun:"id,pk,autoincrement"`
	UserID        string     `bun:"user_id"`
	ChallengeDate string     `bun:"challenge_date"`
	ChallengeType string     `bun:"challenge_type"`
	Completed     bool       `bun:"completed"`
	Score         *int       `bun:"score"`
	CompletedAt   *time.Time `bun:"completed_at"`
}

func (m dailyChallengeModel) toDomain() domain.DailyChallenge {
	return domain.DailyChallenge{
		ID:        m.ID,
		Type:      m.ChallengeType,
		Completed: m.Completed,
		Score:     m.Score,
		Date:      m.ChallengeDate,
	}
}

type tournamentModel struct {
	bun.BaseModel   `bun:"table:tournaments,alias:t"`
	ID              int64     `bun:"id,pk,autoincrement"`
	Name            string    `bun:"name"`
	Description     string    `bun:"description"`
	StartDate       time.Time `bun:"start_date"`
	EndDate         time.Time `bun:"end_date"`
	MaxParticipants int       `bun:"max_participants"`
	PrizePool       int       `bun:"prize_pool"`
	IsActive        bool      `bun:"is_active"`
}

// tournamentRow is a tournament with its participant count and whether the
// caller has joined.
type tournamentRow struct {
	tournamentModel `bun:",extend"`
	Participants    int `bun:"participants,scanonly"`
	JoinedCount     int `bun:"joined_count,scanonly"`
}

func (r tournamentRow) toDomain() domain.Tournament {
	return domain.Tournament{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		Participants:    r.Participants,
		MaxParticipants: r.MaxParticipants,
		PrizePool:       r.PrizePool,
		Joined:          r.JoinedCount > 0,
	}
}

type tournamentParticipantModel struct {
	bun.BaseModel `bun:"table:tournament_participants,alias:tp"`
	TournamentID  int64     `bun:"tournament_id,pk"`
	UserID        string    `bun:"user_id,pk"`
	Score         int       `bun:"score"`
	JoinedAt      time.Time `bun:"joined_at"`
}

type helpTicketModel struct {
	bun.BaseModel `bun:"table:help_tickets,alias:ht"`
	ID            int64      `bun:"id,pk,autoincrement"`
	UserID        string     `bun:"user_id"`
	Subject       string     `bun:"subject"`
	Category      string     `bun:"category"`
	Priority      string     `bun:"priority"`
	Description   string     `bun:"description"`
	Status        string     `bun:"status"`
	CreatedAt     time.Time  `bun:"created_at"`
	ResolvedAt    *time.Time `bun:"resolved_at"`
}

func (m helpTicketModel) toDomain() domain.HelpTicket {
	return domain.HelpTicket{
		ID:          m.ID,
		UserID:      m.UserID,
		Subject:     m.Subject,
		Category:    m.Category,
		Priority:    m.Priority,
		Description: m.Description,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
	}
}
