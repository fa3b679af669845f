package questionbank

import (
	"context"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// Bank is the question storage the seeder writes to.
type Bank interface {
	CountQuestions(ctx context.Context) (int, error)
	InsertQuestions(ctx context.Context, questions []domain.Question) (int, error)
}

// SeedIfEmpty loads the built-in bank into an empty question table. It
// returns the number of questions inserted, zero when the table had rows.
func SeedIfEmpty(ctx context.Context, bank Bank) (int, error) {
	n, err := bank.CountQuestions(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	questions, err := Seed()
	if err != nil {
		return 0, err
	}
	return bank.InsertQuestions(ctx, questions)
}
