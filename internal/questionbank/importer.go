// Package questionbank loads questions from the built-in bank and from
// CSV or XLSX spreadsheets.
package questionbank

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

//go:embed seed.csv
var seedCSV []byte

const defaultType = "short_answer"

// Columns recognised in an import header. Matching ignores case and spaces.
const (
	colSubject     = "subject"
	colDifficulty  = "difficulty"
	colType        = "type"
	colQuestion    = "question"
	colAnswer      = "correct_answer"
	colHint        = "hint"
	colExplanation = "explanation"
)

var requiredColumns = []string{colSubject, colQuestion, colAnswer}

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported question file format")

// RowError describes a skipped row. Row is 1-based and counts the header.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Report is the result of parsing a question sheet.
type Report struct {
	Questions []domain.Question
	Skipped   []RowError
}

// Seed returns the built-in question bank.
func Seed() ([]domain.Question, error) {
	report, err := ReadCSV(bytes.NewReader(seedCSV))
	if err != nil {
		return nil, err
	}
	if len(report.Skipped) > 0 {
		return nil, fmt.Errorf("seed bank: %w", report.Skipped[0])
	}
	return report.Questions, nil
}

// ReadFile parses path as CSV or XLSX based on its extension.
func ReadFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	default:
		return Report{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func ReadCSV(r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Report{}, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows)
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader) (Report, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return Report{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return Report{}, errors.New("xlsx has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return Report{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (Report, error) {
	if len(rows) == 0 {
		return Report{}, errors.New("question sheet is empty")
	}
	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
		index[key] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return Report{}, fmt.Errorf("missing column %q", col)
		}
	}

	report := Report{Questions: make([]domain.Question, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		cell := func(col string) string {
			idx, ok := index[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if isBlank(row) {
			continue
		}
		q, reason := buildQuestion(cell)
		if reason != "" {
			report.Skipped = append(report.Skipped, RowError{Row: i + 2, Reason: reason})
			continue
		}
		report.Questions = append(report.Questions, q)
	}
	return report, nil
}

func buildQuestion(cell func(string) string) (domain.Question, string) {
	q := domain.Question{
		Subject:       strings.ToLower(cell(colSubject)),
		Type:          cell(colType),
		Prompt:        cell(colQuestion),
		CorrectAnswer: cell(colAnswer),
		Hint:          cell(colHint),
		Explanation:   cell(colExplanation),
		Difficulty:    1,
	}
	switch {
	case q.Subject == "":
		return q, "subject is empty"
	case q.Prompt == "":
		return q, "question is empty"
	case q.CorrectAnswer == "":
		return q, "correct_answer is empty"
	}
	if raw := cell(colDifficulty); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 1 || d > 3 {
			return q, fmt.Sprintf("difficulty %q is not 1, 2 or 3", raw)
		}
		q.Difficulty = d
	}
	if q.Type == "" {
		q.Type = defaultType
	}
	if q.Explanation == "" {
		q.Explanation = "The correct answer is " + q.CorrectAnswer
	}
	return q, ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
