package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

func TestEnsureDailyChallengesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createUser(t, s, "u1", "Nova")
	types := []string{"math", "science", "mixed"}

	first, err := s.EnsureDailyChallenges(ctx, "u1", "2025-03-01", types)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "math", first[0].Type)
	assert.False(t, first[0].Completed)
	assert.Nil(t, first[0].Score)
	assert.Equal(t, "2025-03-01", first[0].Date)

	again, err := s.EnsureDailyChallenges(ctx, "u1", "2025-03-01", types)
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, first[2].ID, again[2].ID)

	next, err := s.EnsureDailyChallenges(ctx, "u1", "2025-03-02", types)
	require.NoError(t, err)
	require.Len(t, next, 3)
	assert.NotEqual(t, first[0].ID, next[0].ID)
}

func TestTournamentsListAndJoin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createUser(t, s, "u1", "Nova")
	createUser(t, s, "u2", "Orion")
	createUser(t, s, "u3", "Vega")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cup, err := s.CreateTournament(ctx, domain.Tournament{
		Name: "Star Cup", StartDate: now.Add(-time.Hour), EndDate: now.Add(24 * time.Hour), MaxParticipants: 2, PrizePool: 500,
	})
	require.NoError(t, err)
	_, err = s.CreateTournament(ctx, domain.Tournament{
		Name: "Old Cup", StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-24 * time.Hour), MaxParticipants: 10,
	})
	require.NoError(t, err)

	list, err := s.ActiveTournaments(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Star Cup", list[0].Name)
	assert.False(t, list[0].Joined)
	assert.Zero(t, list[0].Participants)

	require.NoError(t, s.JoinTournament(ctx, cup.ID, "u1", now))
	require.NoError(t, s.JoinTournament(ctx, cup.ID, "u1", now), "joining twice is a no-op")
	require.NoError(t, s.JoinTournament(ctx, cup.ID, "u2", now))
	assert.ErrorIs(t, s.JoinTournament(ctx, cup.ID, "u3", now), domain.ErrTournamentFull)
	assert.ErrorIs(t, s.JoinTournament(ctx, 999, "u3", now), domain.ErrTournamentNotFound)
	assert.ErrorIs(t, s.JoinTournament(ctx, cup.ID, "u3", now.Add(48*time.Hour)), domain.ErrTournamentNotFound)

	list, err = s.ActiveTournaments(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Joined)
	assert.Equal(t, 2, list[0].Participants)

	list, err = s.ActiveTournaments(ctx, "u3", now)
	require.NoError(t, err)
	assert.False(t, list[0].Joined)
}

func TestCreateHelpTicket(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createUser(t, s, "u1", "Nova")

	ticket, err := s.CreateHelpTicket(ctx, domain.HelpTicket{
		UserID: "u1", Subject: "Fractions", Category: "math", Priority: "high",
		Description: "I do not get common denominators", Status: "open", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NotZero(t, ticket.ID)

	var stored helpTicketModel
	require.NoError(t, s.db.NewSelect().Model(&stored).Where("id = ?", ticket.ID).Scan(ctx))
	assert.Equal(t, "open", stored.Status)
	assert.Equal(t, "high", stored.Priority)
	assert.Nil(t, stored.ResolvedAt)
}
