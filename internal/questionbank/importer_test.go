package questionbank

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/idfuturestars/StarGuideAI/internal/answer"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

func TestSeedBank(t *testing.T) {
	questions, err := Seed()
	require.NoError(t, err)
	require.NotEmpty(t, questions)

	subjects := map[string]int{}
	for _, q := range questions {
		subjects[q.Subject]++
		assert.NotEmpty(t, q.Prompt)
		assert.NotEmpty(t, q.Hint, "every seed question has a hint: %s", q.Prompt)
		assert.True(t, answer.Check(q.CorrectAnswer, q.CorrectAnswer), "canonical answer must validate: %s", q.Prompt)
		assert.GreaterOrEqual(t, q.Difficulty, 1)
		assert.LessOrEqual(t, q.Difficulty, 3)
	}
	for _, s := range []string{"math", "science", "english", "history"} {
		assert.Positive(t, subjects[s], s)
	}
}

func TestReadCSVDefaultsAndSkips(t *testing.T) {
	input := strings.Join([]string{
		"Subject,Question,Correct Answer,Difficulty,Hint",
		"Math,What is 2/3 + 1/6?,5/6,2,Find a common denominator",
		"science,,8,1,",
		"history,When was the Magna Carta signed?,1215,9,",
		",,,,",
		"english,What is the plural of 'child'?,children,,Irregular plural",
	}, "\n")

	report, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, report.Questions, 2)
	first := report.Questions[0]
	assert.Equal(t, "math", first.Subject)
	assert.Equal(t, 2, first.Difficulty)
	assert.Equal(t, defaultType, first.Type)
	assert.Equal(t, "The correct answer is 5/6", first.Explanation)
	assert.Equal(t, 1, report.Questions[1].Difficulty)

	require.Len(t, report.Skipped, 2)
	assert.Equal(t, 3, report.Skipped[0].Row)
	assert.Contains(t, report.Skipped[0].Error(), "question is empty")
	assert.Equal(t, 4, report.Skipped[1].Row)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("subject,question\nmath,What is 1+1?\n"))
	assert.ErrorContains(t, err, "correct_answer")
}

func TestReadXLSX(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]interface{}{"subject", "difficulty", "type", "question", "correct_answer", "hint", "explanation"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]interface{}{"science", 2, "biology", "What is the powerhouse of the cell?", "mitochondria", "Produces ATP", "Mitochondria produce ATP"}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	report, err := ReadXLSX(buf)
	require.NoError(t, err)
	require.Len(t, report.Questions, 1)
	q := report.Questions[0]
	assert.Equal(t, "biology", q.Type)
	assert.Equal(t, 2, q.Difficulty)
	assert.Equal(t, "Mitochondria produce ATP", q.Explanation)
	assert.Empty(t, report.Skipped)
}

func TestReadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bank.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("subject,question,correct_answer\nmath,What is 15 × 8?,120\n"), 0o600))

	report, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, report.Questions, 1)

	txtPath := filepath.Join(dir, "bank.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = ReadFile(txtPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

type fakeBank struct {
	existing int
	inserted []domain.Question
}

func (b *fakeBank) CountQuestions(context.Context) (int, error) { return b.existing, nil }

func (b *fakeBank) InsertQuestions(_ context.Context, qs []domain.Question) (int, error) {
	b.inserted = append(b.inserted, qs...)
	return len(qs), nil
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()

	empty := &fakeBank{}
	n, err := SeedIfEmpty(ctx, empty)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Len(t, empty.inserted, n)

	full := &fakeBank{existing: 3}
	n, err = SeedIfEmpty(ctx, full)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, full.inserted)
}
