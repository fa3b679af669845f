package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const (
	podRoleAdmin  = "admin"
	podRoleMember = "member"
)

// CreatePod inserts the pod and its creator as admin member.
func (s *Store) CreatePod(ctx context.Context, pod domain.Pod) (domain.Pod, error) {
	creator, err := s.UserByID(ctx, pod.CreatorID)
	if err != nil {
		return domain.Pod{}, err
	}

	m := podModel{
		Name:        pod.Name,
		Description: pod.Description,
		Subject:     pod.Subject,
		CreatorID:   pod.CreatorID,
		MaxMembers:  pod.MaxMembers,
		IsActive:    true,
		CreatedAt:   pod.CreatedAt.UTC(),
	}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert pod: %w", err)
		}
		member := podMemberModel{PodID: m.ID, UserID: pod.CreatorID, Role: podRoleAdmin, JoinedAt: m.CreatedAt}
		if _, err := tx.NewInsert().Model(&member).Exec(ctx); err != nil {
			return fmt.Errorf("insert pod admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Pod{}, err
	}
	return podRow{podModel: m, CreatorName: creator.Username, MemberCount: 1}.toDomain(), nil
}

// ListPods returns active pods, newest first.
func (s *Store) ListPods(ctx context.Context, limit int) ([]domain.Pod, error) {
	var rows []podRow
	err := s.db.NewSelect().Model(&rows).
		ColumnExpr("p.*").
		ColumnExpr("u.username AS creator_name").
		ColumnExpr("(SELECT COUNT(*) FROM pod_members AS pm WHERE pm.pod_id = p.id) AS member_count").
		Join("JOIN users AS u ON u.id = p.creator_id").
		Where("p.is_active = ?", true).
		OrderExpr("p.created_at DESC, p.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}
	out := make([]domain.Pod, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// JoinPod adds a member unless already present. The capacity check and the
// insert share a transaction.
func (s *Store) JoinPod(ctx context.Context, podID int64, userID string) error {
	lock := isPostgres(s.db)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var pod podModel
		q := tx.NewSelect().Model(&pod).Where("id = ?", podID).Where("is_active = ?", true)
		if lock {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", domain.ErrPodNotFound, podID)
			}
			return fmt.Errorf("load pod: %w", err)
		}

		member, err := tx.NewSelect().Model((*podMemberModel)(nil)).
			Where("pod_id = ?", podID).
			Where("user_id = ?", userID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if member {
			return nil
		}

		count, err := tx.NewSelect().Model((*podMemberModel)(nil)).Where("pod_id = ?", podID).Count(ctx)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if count >= pod.MaxMembers {
			return fmt.Errorf("%w: %d", domain.ErrPodFull, podID)
		}

		m := podMemberModel{PodID: podID, UserID: userID, Role: podRoleMember, JoinedAt: s.now()}
		if _, err := tx.NewInsert().Model(&m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		return nil
	})
}

func (s *Store) SaveMessage(ctx context.Context, msg domain.PodMessage) error {
	m := podMessageModel{PodID: msg.PodID, UserID: msg.UserID, Message: msg.Message, CreatedAt: msg.SentAt.UTC()}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return fmt.Errorf("insert pod message: %w", err)
	}
	return nil
}
