package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// Store implements the application repositories on top of bun.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var (
	_ app.ProgressStore   = (*Store)(nil)
	_ app.QuestionStore   = (*Store)(nil)
	_ app.AccountStore    = (*Store)(nil)
	_ app.PodStore        = (*Store)(nil)
	_ app.EventStore      = (*Store)(nil)
	_ app.ChallengeStore  = (*Store)(nil)
	_ app.TournamentStore = (*Store)(nil)
	_ app.HelpStore       = (*Store)(nil)
)

// WithinUser runs fn in a transaction. On Postgres the profile row is locked
// FOR UPDATE by ProgressTx.Profile; SQLite has a single connection, so
// transactions already run one at a time.
func (s *Store) WithinUser(ctx context.Context, userID string, fn func(ctx context.Context, tx app.ProgressTx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &progressTx{tx: tx, userID: userID, lock: isPostgres(s.db)})
	})
}

type progressTx struct {
	tx     bun.Tx
	userID string
	lock   bool
}

func (t *progressTx) Profile(ctx context.Context) (domain.Profile, error) {
	var m profileModel
	q := t.tx.NewSelect().Model(&m).Where("user_id = ?", t.userID)
	if t.lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, t.userID)
		}
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return m.toDomain(), nil
}

func (t *progressTx) AttemptCount(ctx context.Context) (int, error) {
	n, err := t.tx.NewSelect().Model((*assessmentModel)(nil)).Where("user_id = ?", t.userID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (t *progressTx) OwnedAchievements(ctx context.Context) (map[domain.AchievementID]bool, error) {
	var ids []string
	err := t.tx.NewSelect().Model((*achievementModel)(nil)).
		Column("achievement_id").
		Where("user_id = ?", t.userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	owned := make(map[domain.AchievementID]bool, len(ids))
	for _, id := range ids {
		owned[domain.AchievementID(id)] = true
	}
	return owned, nil
}

func (t *progressTx) SaveAssessment(ctx context.Context, attempt domain.AssessmentAttempt, completedAt time.Time) error {
	data := "[]"
	if len(attempt.Answers) > 0 {
		data = string(attempt.Answers)
	}
	m := assessmentModel{
		UserID:         t.userID,
		Type:           attempt.Type,
		Subject:        attempt.Subject,
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
		TimeTaken:      attempt.TimeTakenSeconds,
		QuestionsData:  data,
		CompletedAt:    completedAt.UTC(),
	}
	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// SaveProfile writes the progression columns only; credits and streak are left as stored.
func (t *progressTx) SaveProfile(ctx context.Context, p domain.Profile) error {
	m := profileModel{UserID: t.userID, Level: p.Level, XP: p.XP, LastActivity: p.LastActivity.UTC()}
	res, err := t.tx.NewUpdate().Model(&m).Column("level", "xp", "last_activity").WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, t.userID)
	}
	return nil
}

func (t *progressTx) UnlockAchievement(ctx context.Context, id domain.AchievementID, at time.Time) (bool, error) {
	m := achievementModel{UserID: t.userID, AchievementID: string(id), UnlockedAt: at.UTC()}
	res, err := t.tx.NewInsert().Model(&m).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *progressTx) RecordEvent(ctx context.Context, eventType string, data any) error {
	return insertEvent(ctx, t.tx, t.userID, eventType, data, time.Now().UTC())
}

func (s *Store) RecordEvent(ctx context.Context, userID, eventType string, data any) error {
	return insertEvent(ctx, s.db, userID, eventType, data, s.now())
}

func insertEvent(ctx context.Context, db bun.IDB, userID, eventType string, data any, at time.Time) error {
	raw := []byte("{}")
	if data != nil {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
	}
	m := eventModel{UserID: userID, EventType: eventType, EventData: string(raw), CreatedAt: at}
	if _, err := db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}
