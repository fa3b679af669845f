// Package answer decides whether a free-text answer matches a question's
// canonical answer and keeps per-question success statistics.
package answer

import (
	"math"
	"strconv"
	"strings"
)

// NumericTolerance is the exclusive bound for treating two numeric answers as equal.
const NumericTolerance = 0.01

// Check reports whether userAnswer matches correctAnswer.
//
// Both sides are trimmed and lowercased. Equal strings are correct; otherwise
// both sides must parse as floats and differ by strictly less than
// NumericTolerance. An empty answer is never correct.
func Check(correctAnswer, userAnswer string) bool {
	user := normalize(userAnswer)
	if user == "" {
		return false
	}
	correct := normalize(correctAnswer)
	if user == correct {
		return true
	}

	u, err := parseNumber(user)
	if err != nil {
		return false
	}
	c, err := parseNumber(correct)
	if err != nil {
		return false
	}
	return math.Abs(u-c) < NumericTolerance
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseNumber accepts finite decimal numbers only; "nan" and "inf" are text answers.
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

// Stats are the running usage statistics of one question.
type Stats struct {
	UsageCount  int
	SuccessRate float64
}

// Record folds one answer outcome into the running mean. The new rate is
// computed from the old count before the count is incremented.
func (s Stats) Record(correct bool) Stats {
	outcome := 0.0
	if correct {
		outcome = 1
	}
	rate := (s.SuccessRate*float64(s.UsageCount) + outcome) / float64(s.UsageCount+1)
	return Stats{UsageCount: s.UsageCount + 1, SuccessRate: rate}
}
