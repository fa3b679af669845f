package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// QuestionLoader reads single questions from Postgres for the question caches.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

const loadQuestionSQL = `
SELECT id, subject, difficulty, type, question, correct_answer, hint, explanation, usage_count, success_rate
FROM questions
WHERE id = $1`

func (l *QuestionLoader) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	var q domain.Question
	err := l.pool.QueryRow(ctx, loadQuestionSQL, id).Scan(
		&q.ID, &q.Subject, &q.Difficulty, &q.Type, &q.Prompt,
		&q.CorrectAnswer, &q.Hint, &q.Explanation, &q.UsageCount, &q.SuccessRate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, fmt.Errorf("%w: %d", domain.ErrUnknownQuestion, id)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}
