package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const defaultTournamentLength = 7 * 24 * time.Hour

// TournamentService lists and joins tournaments.
type TournamentService struct {
	store TournamentStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewTournamentService(store TournamentStore, log logrus.FieldLogger) *TournamentService {
	return &TournamentService{store: store, log: log, now: time.Now}
}

func (s *TournamentService) Active(ctx context.Context, userID string) ([]domain.Tournament, error) {
	return s.store.ActiveTournaments(ctx, userID, s.now().UTC())
}

func (s *TournamentService) Join(ctx context.Context, tournamentID int64, userID string) error {
	if err := s.store.JoinTournament(ctx, tournamentID, userID, s.now().UTC()); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"tournament_id": tournamentID, "user_id": userID}).Info("tournament joined")
	return nil
}

// EnsureWeekly opens a week-long tournament when none is running and
// reports whether it created one.
func (s *TournamentService) EnsureWeekly(ctx context.Context) (bool, error) {
	now := s.now().UTC()
	active, err := s.store.ActiveTournaments(ctx, "", now)
	if err != nil {
		return false, err
	}
	if len(active) > 0 {
		return false, nil
	}
	t, err := s.store.CreateTournament(ctx, domain.Tournament{
		Name:            "Weekly Star Cup",
		Description:     "Answer as many questions as you can before the week ends",
		StartDate:       now,
		EndDate:         now.Add(defaultTournamentLength),
		MaxParticipants: 100,
		PrizePool:       1000,
	})
	if err != nil {
		return false, err
	}
	s.log.WithField("tournament_id", t.ID).Info("weekly tournament opened")
	return true, nil
}
