// Package scheduler runs the periodic presence upkeep jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Heartbeater refreshes presence for locally connected users.
type Heartbeater interface {
	Heartbeat(ctx context.Context) error
}

// Pruner drops users whose presence was not refreshed within maxAge.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	hub       Heartbeater
	pruner    Pruner
	interval  time.Duration
	ttl       time.Duration
	log       logrus.FieldLogger
}

// New schedules a heartbeat every interval and prunes entries older than ttl.
func New(hub Heartbeater, pruner Pruner, interval, ttl time.Duration, log logrus.FieldLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		hub:       hub,
		pruner:    pruner,
		interval:  interval,
		ttl:       ttl,
		log:       log,
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.Tick); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Tick runs one heartbeat followed by a prune.
func (s *Scheduler) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if err := s.hub.Heartbeat(ctx); err != nil {
		s.log.WithError(err).Warn("presence heartbeat")
	}
	removed, err := s.pruner.Prune(ctx, s.ttl)
	if err != nil {
		s.log.WithError(err).Warn("presence prune")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("pruned stale presence")
	}
}
