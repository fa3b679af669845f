package app

import (
	"context"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

type stubAnswers map[int64]string

func (s stubAnswers) Validate(_ context.Context, id int64, answer string) (domain.AnswerVerdict, error) {
	want, ok := s[id]
	if !ok {
		return domain.AnswerVerdict{}, domain.ErrUnknownQuestion
	}
	return domain.AnswerVerdict{Correct: want == answer}, nil
}

func TestBattleFindPicksRosterOpponent(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	svc := NewBattleService(stubAnswers{}, log)

	b, err := svc.Find(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.ID, "battle_"))
	assert.Len(t, b.ID, len("battle_")+8)
	assert.Contains(t, []string{"CosmoKid", "StarSeeker", "GalaxyBrain", "NebulaKnight"}, b.Opponent.Name)
	assert.GreaterOrEqual(t, b.Opponent.Level, 1)
	assert.LessOrEqual(t, b.Opponent.Level, 10)
	assert.GreaterOrEqual(t, b.Opponent.Rating, 800)
	assert.LessOrEqual(t, b.Opponent.Rating, 1200)
}

func TestBattleMoveScores(t *testing.T) {
	ctx := context.Background()
	log, _ := logtest.NewNullLogger()
	svc := NewBattleService(stubAnswers{1: "4"}, log)
	b, err := svc.Find(ctx, "u1")
	require.NoError(t, err)

	update, err := svc.Move(ctx, "u1", b.ID, 0, "")
	require.NoError(t, err)
	assert.Nil(t, update.Correct)
	assert.Zero(t, update.CurrentQuestion)

	update, err = svc.Move(ctx, "u1", b.ID, 1, "4")
	require.NoError(t, err)
	require.NotNil(t, update.Correct)
	assert.True(t, *update.Correct)
	assert.Equal(t, battlePoints, update.UserScore)
	assert.Equal(t, 1, update.CurrentQuestion)

	update, err = svc.Move(ctx, "u1", b.ID, 1, "5")
	require.NoError(t, err)
	assert.Equal(t, battlePoints, update.OpponentScore)
	assert.Equal(t, 2, update.CurrentQuestion)

	_, err = svc.Move(ctx, "u1", b.ID, 42, "x")
	assert.ErrorIs(t, err, domain.ErrUnknownQuestion)
}

func TestBattleMoveRejectsForeignAndExpiredBattles(t *testing.T) {
	ctx := context.Background()
	log, _ := logtest.NewNullLogger()
	svc := NewBattleService(stubAnswers{}, log)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	b, err := svc.Find(ctx, "u1")
	require.NoError(t, err)

	_, err = svc.Move(ctx, "u2", b.ID, 0, "")
	assert.ErrorIs(t, err, domain.ErrBattleNotFound)
	_, err = svc.Move(ctx, "u1", "battle_missing", 0, "")
	assert.ErrorIs(t, err, domain.ErrBattleNotFound)

	now = now.Add(battleTTL + time.Minute)
	_, err = svc.Move(ctx, "u1", b.ID, 0, "")
	assert.ErrorIs(t, err, domain.ErrBattleNotFound)

	// Starting a new battle sweeps expired ones.
	_, err = svc.Find(ctx, "u2")
	require.NoError(t, err)
	svc.mu.Lock()
	_, kept := svc.battles[b.ID]
	svc.mu.Unlock()
	assert.False(t, kept)
}
