package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// CreateUser inserts the user and its profile together.
func (s *Store) CreateUser(ctx context.Context, user domain.User, profile domain.Profile) error {
	taken, err := s.db.NewSelect().Model((*userModel)(nil)).
		Where("username = ?", user.Username).
		WhereOr("email = ?", user.Email).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if taken {
		return domain.ErrUsernameTaken
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		u := userModel{
			ID:           user.ID,
			Email:        user.Email,
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			Role:         user.Role,
			IsDemo:       user.IsDemo,
			CreatedAt:    user.CreatedAt.UTC(),
		}
		if _, err := tx.NewInsert().Model(&u).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrUsernameTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		p := newProfileModel(profile, user.CreatedAt)
		if _, err := tx.NewInsert().Model(&p).Exec(ctx); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
}

func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (domain.User, error) {
	var m userModel
	if err := s.db.NewSelect().Model(&m).Where(where, arg).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) ProfileView(ctx context.Context, userID string, recent int) (domain.ProfileView, error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return domain.ProfileView{}, err
	}

	var p profileModel
	if err := s.db.NewSelect().Model(&p).Where("user_id = ?", userID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProfileView{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
		}
		return domain.ProfileView{}, fmt.Errorf("load profile: %w", err)
	}

	count, err := s.db.NewSelect().Model((*achievementModel)(nil)).Where("user_id = ?", userID).Count(ctx)
	if err != nil {
		return domain.ProfileView{}, fmt.Errorf("count achievements: %w", err)
	}

	var rows []assessmentModel
	err = s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("completed_at DESC, id DESC").
		Limit(recent).
		Scan(ctx)
	if err != nil {
		return domain.ProfileView{}, fmt.Errorf("load recent assessments: %w", err)
	}
	history := make([]domain.AssessmentSummary, 0, len(rows))
	for _, r := range rows {
		history = append(history, r.toSummary())
	}

	return domain.ProfileView{
		User:              user,
		Profile:           p.toDomain(),
		Achievements:      count,
		RecentAssessments: history,
	}, nil
}
