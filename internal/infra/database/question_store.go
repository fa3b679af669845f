package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/idfuturestars/StarGuideAI/internal/answer"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

func (s *Store) RandomQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	var rows []questionModel
	q := s.db.NewSelect().Model(&rows)
	if filter.Subject != "" {
		q = q.Where("subject = ?", filter.Subject)
	}
	if filter.Difficulty > 0 {
		q = q.Where("difficulty = ?", filter.Difficulty)
	}
	if err := q.OrderExpr("RANDOM()").Limit(filter.Count).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// LoadQuestion feeds the question caches when running without the pgx loader.
func (s *Store) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	var m questionModel
	if err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Question{}, fmt.Errorf("%w: %d", domain.ErrUnknownQuestion, id)
		}
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return m.toDomain(), nil
}

// RecordOutcome reads and rewrites the statistics in one transaction so
// concurrent validations of the same question are not lost.
func (s *Store) RecordOutcome(ctx context.Context, id int64, correct bool) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var m questionModel
		q := tx.NewSelect().Model(&m).Column("id", "usage_count", "success_rate").Where("id = ?", id)
		if isPostgres(s.db) {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", domain.ErrUnknownQuestion, id)
			}
			return fmt.Errorf("load question stats: %w", err)
		}

		stats := answer.Stats{UsageCount: m.UsageCount, SuccessRate: m.SuccessRate}.Record(correct)
		m.UsageCount = stats.UsageCount
		m.SuccessRate = stats.SuccessRate
		_, err := tx.NewUpdate().Model(&m).Column("usage_count", "success_rate").WherePK().Exec(ctx)
		return err
	})
}

// InsertQuestions adds questions to the bank and returns how many were written.
func (s *Store) InsertQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]questionModel, 0, len(questions))
	now := s.now()
	for _, q := range questions {
		rows = append(rows, newQuestionModel(q, now))
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	return len(rows), nil
}

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*questionModel)(nil)).Count(ctx)
}
