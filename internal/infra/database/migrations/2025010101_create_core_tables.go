package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// Table shapes as of this migration.

type user struct {
	bun.BaseModel `bun:"table:users"`
	ID            string    `bun:"id,pk"`
	Email         string    `bun:"email,notnull,unique"`
	Username      string    `bun:"username,notnull,unique"`
	PasswordHash  string    `bun:"password_hash,notnull,default:''"`
	Role          string    `bun:"role,notnull,default:'student'"`
	IsDemo        bool      `bun:"is_demo,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type userProfile struct {
	bun.BaseModel `bun:"table:user_profiles"`
	UserID        string    `bun:"user_id,pk"`
	DisplayName   string    `bun:"display_name,notnull,default:''"`
	Level         int       `bun:"level,notnull,default:1"`
	XP            int       `bun:"xp,notnull,default:0"`
	Credits       int       `bun:"credits,notnull,default:100"`
	Streak        int       `bun:"streak,notnull,default:0"`
	LastActivity  time.Time `bun:"last_activity,notnull,default:current_timestamp"`
	Settings      string    `bun:"settings,notnull,default:'{}'"`
}

type assessment struct {
	bun.BaseModel  `bun:"table:assessments"`
	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         string    `bun:"user_id,notnull"`
	Type           string    `bun:"type,notnull"`
	Subject        string    `bun:"subject,notnull"`
	Score          int       `bun:"score,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	TimeTaken      int       `bun:"time_taken,notnull,default:0"`
	QuestionsData  string    `bun:"questions_data,notnull,default:'[]'"`
	CompletedAt    time.Time `bun:"completed_at,notnull,default:current_timestamp"`
}

type question struct {
	bun.BaseModel `bun:"table:questions"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Subject       string    `bun:"subject,notnull"`
	Difficulty    int       `bun:"difficulty,notnull,default:1"`
	Type          string    `bun:"type,notnull,default:'short_answer'"`
	Question      string    `bun:"question,notnull"`
	Options       string    `bun:"options,notnull,default:'[]'"`
	CorrectAnswer string    `bun:"correct_answer,notnull"`
	Explanation   string    `bun:"explanation,notnull,default:''"`
	Hint          string    `bun:"hint,notnull,default:''"`
	Tags          string    `bun:"tags,notnull,default:''"`
	UsageCount    int       `bun:"usage_count,notnull,default:0"`
	SuccessRate   float64   `bun:"success_rate,notnull,default:0"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type achievement struct {
	bun.BaseModel `bun:"table:achievements"`
	UserID        string    `bun:"user_id,pk"`
	AchievementID string    `bun:"achievement_id,pk"`
	UnlockedAt    time.Time `bun:"unlocked_at,notnull,default:current_timestamp"`
}

type learningPod struct {
	bun.BaseModel `bun:"table:learning_pods"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	Description   string    `bun:"description,notnull,default:''"`
	Subject       string    `bun:"subject,notnull,default:'general'"`
	CreatorID     string    `bun:"creator_id,notnull"`
	MaxMembers    int       `bun:"max_members,notnull,default:10"`
	IsActive      bool      `bun:"is_active,notnull,default:true"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type podMember struct {
	bun.BaseModel `bun:"table:pod_members"`
	PodID         int64     `bun:"pod_id,pk"`
	UserID        string    `bun:"user_id,pk"`
	Role          string    `bun:"role,notnull,default:'member'"`
	JoinedAt      time.Time `bun:"joined_at,notnull,default:current_timestamp"`
}

type podMessage struct {
	bun.BaseModel `bun:"table:pod_messages"`
	ID            int64     `bun:"id,pk,autoincrement"`
	PodID         int64     `bun:"pod_id,notnull"`
	UserID        string    `bun:"user_id,notnull"`
	Message       string    `bun:"message,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type analyticsEvent struct {
	bun.BaseModel `bun:"table:analytics_events"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id,notnull"`
	EventType     string    `bun:"event_type,notnull"`
	EventData     string    `bun:"event_data,notnull,default:'{}'"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

const userFK = `("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`
const podFK = `("pod_id") REFERENCES "learning_pods" ("id") ON DELETE CASCADE`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				tables := []struct {
					model       interface{}
					foreignKeys []string
				}{
					{(*user)(nil), nil},
					{(*userProfile)(nil), []string{userFK}},
					{(*assessment)(nil), []string{userFK}},
					{(*question)(nil), nil},
					{(*achievement)(nil), []string{userFK}},
					{(*learningPod)(nil), []string{`("creator_id") REFERENCES "users" ("id") ON DELETE CASCADE`}},
					{(*podMember)(nil), []string{podFK, userFK}},
					{(*podMessage)(nil), []string{podFK, userFK}},
					{(*analyticsEvent)(nil), []string{userFK}},
				}
				for _, t := range tables {
					q := tx.NewCreateTable().Model(t.model).IfNotExists()
					for _, fk := range t.foreignKeys {
						q = q.ForeignKey(fk)
					}
					if _, err := q.Exec(ctx); err != nil {
						return err
					}
				}

				indexes := []struct {
					model   interface{}
					name    string
					columns []string
				}{
					{(*assessment)(nil), "assessments_user_completed_idx", []string{"user_id", "completed_at"}},
					{(*question)(nil), "questions_subject_difficulty_idx", []string{"subject", "difficulty"}},
					{(*podMessage)(nil), "pod_messages_pod_created_idx", []string{"pod_id", "created_at"}},
					{(*analyticsEvent)(nil), "analytics_events_user_created_idx", []string{"user_id", "created_at"}},
				}
				for _, idx := range indexes {
					if _, err := tx.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx); err != nil {
						return err
					}
				}
				return nil
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for _, model := range []interface{}{
					(*analyticsEvent)(nil),
					(*podMessage)(nil),
					(*podMember)(nil),
					(*learningPod)(nil),
					(*achievement)(nil),
					(*question)(nil),
					(*assessment)(nil),
					(*userProfile)(nil),
					(*user)(nil),
				} {
					if _, err := tx.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
						return err
					}
				}
				return nil
			})
		},
	)
}
