package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// EnsureDailyChallenges inserts the missing (user, day, type) rows and
// returns the day's rows in insertion order. Concurrent first calls of the
// day are absorbed by the unique index.
func (s *Store) EnsureDailyChallenges(ctx context.Context, userID, day string, types []string) ([]domain.DailyChallenge, error) {
	for _, typ := range types {
		m := dailyChallengeModel{UserID: userID, ChallengeDate: day, ChallengeType: typ}
		if _, err := s.db.NewInsert().Model(&m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert daily challenge: %w", err)
		}
	}

	var rows []dailyChallengeModel
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("challenge_date = ?", day).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load daily challenges: %w", err)
	}
	out := make([]domain.DailyChallenge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error) {
	m := tournamentModel{
		Name:            t.Name,
		Description:     t.Description,
		StartDate:       t.StartDate.UTC(),
		EndDate:         t.EndDate.UTC(),
		MaxParticipants: t.MaxParticipants,
		PrizePool:       t.PrizePool,
		IsActive:        true,
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return domain.Tournament{}, fmt.Errorf("insert tournament: %w", err)
	}
	return tournamentRow{tournamentModel: m}.toDomain(), nil
}

// ActiveTournaments returns running and upcoming tournaments, latest start first.
func (s *Store) ActiveTournaments(ctx context.Context, userID string, now time.Time) ([]domain.Tournament, error) {
	var rows []tournamentRow
	err := s.db.NewSelect().Model(&rows).
		ColumnExpr("t.*").
		ColumnExpr("(SELECT COUNT(*) FROM tournament_participants AS tp WHERE tp.tournament_id = t.id) AS participants").
		ColumnExpr("(SELECT COUNT(*) FROM tournament_participants AS tp WHERE tp.tournament_id = t.id AND tp.user_id = ?) AS joined_count", userID).
		Where("t.is_active = ?", true).
		Where("t.end_date > ?", now.UTC()).
		OrderExpr("t.start_date DESC, t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	out := make([]domain.Tournament, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// JoinTournament adds a participant unless already present. The capacity
// check and the insert share a transaction.
func (s *Store) JoinTournament(ctx context.Context, tournamentID int64, userID string, now time.Time) error {
	lock := isPostgres(s.db)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var t tournamentModel
		q := tx.NewSelect().Model(&t).
			Where("id = ?", tournamentID).
			Where("is_active = ?", true).
			Where("end_date > ?", now.UTC())
		if lock {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", domain.ErrTournamentNotFound, tournamentID)
			}
			return fmt.Errorf("load tournament: %w", err)
		}

		joined, err := tx.NewSelect().Model((*tournamentParticipantModel)(nil)).
			Where("tournament_id = ?", tournamentID).
			Where("user_id = ?", userID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check participant: %w", err)
		}
		if joined {
			return nil
		}

		count, err := tx.NewSelect().Model((*tournamentParticipantModel)(nil)).Where("tournament_id = ?", tournamentID).Count(ctx)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if count >= t.MaxParticipants {
			return fmt.Errorf("%w: %d", domain.ErrTournamentFull, tournamentID)
		}

		m := tournamentParticipantModel{TournamentID: tournamentID, UserID: userID, JoinedAt: now.UTC()}
		if _, err := tx.NewInsert().Model(&m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
		return nil
	})
}

func (s *Store) CreateHelpTicket(ctx context.Context, ticket domain.HelpTicket) (domain.HelpTicket, error) {
	m := helpTicketModel{
		UserID:      ticket.UserID,
		Subject:     ticket.Subject,
		Category:    ticket.Category,
		Priority:    ticket.Priority,
		Description: ticket.Description,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return domain.HelpTicket{}, fmt.Errorf("insert help ticket: %w", err)
	}
	return m.toDomain(), nil
}
