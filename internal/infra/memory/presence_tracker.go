package memory

import (
	"context"
	"sync"
	"time"
)

// PresenceTracker is a single-instance implementation of relay.PresenceTracker.
type PresenceTracker struct {
	clock func() time.Time

	mu       sync.RWMutex
	lastSeen map[string]time.Time
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		clock:    time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

func (p *PresenceTracker) Online(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen[userID] = p.clock()
	return nil
}

func (p *PresenceTracker) Offline(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.lastSeen, userID)
	return nil
}

func (p *PresenceTracker) Count(_ context.Context) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.lastSeen), nil
}

// Prune drops users not refreshed within maxAge and returns how many were removed.
func (p *PresenceTracker) Prune(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := p.clock().Add(-maxAge)

	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for id, seen := range p.lastSeen {
		if seen.Before(cutoff) {
			delete(p.lastSeen, id)
			removed++
		}
	}
	return removed, nil
}
