package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/answer"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 50
	mixedSubject         = "mixed"
)

// QuestionService serves random questions and validates answers.
type QuestionService struct {
	store     QuestionStore
	questions QuestionRepository
	log       logrus.FieldLogger
}

func NewQuestionService(store QuestionStore, questions QuestionRepository, log logrus.FieldLogger) *QuestionService {
	return &QuestionService{store: store, questions: questions, log: log}
}

// Questions returns up to filter.Count random questions. Serving questions
// leaves usage statistics untouched.
func (s *QuestionService) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	filter.Subject = strings.ToLower(strings.TrimSpace(filter.Subject))
	if filter.Subject == mixedSubject {
		filter.Subject = ""
	}
	switch {
	case filter.Count <= 0:
		filter.Count = DefaultQuestionCount
	case filter.Count > MaxQuestionCount:
		filter.Count = MaxQuestionCount
	}
	if filter.Difficulty < 0 || filter.Difficulty > 3 {
		return nil, fmt.Errorf("%w: difficulty must be 1..3", domain.ErrInvalidRequest)
	}
	return s.store.RandomQuestions(ctx, filter)
}

// Validate checks one answer and records the outcome exactly once.
func (s *QuestionService) Validate(ctx context.Context, questionID int64, userAnswer string) (domain.AnswerVerdict, error) {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.AnswerVerdict{}, err
	}

	correct := answer.Check(q.CorrectAnswer, userAnswer)
	if err := s.store.RecordOutcome(ctx, questionID, correct); err != nil {
		return domain.AnswerVerdict{}, fmt.Errorf("record outcome: %w", err)
	}

	verdict := domain.AnswerVerdict{Correct: correct, Explanation: q.Explanation}
	if !correct {
		canonical := q.CorrectAnswer
		verdict.CorrectAnswer = &canonical
	}
	s.log.WithFields(logrus.Fields{"question_id": questionID, "correct": correct}).Debug("answer validated")
	return verdict, nil
}
