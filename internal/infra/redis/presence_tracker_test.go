package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/idfuturestars/StarGuideAI/internal/relay"
)

func TestPresenceTrackerSharesCountAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	a := NewPresenceTracker(newClient(mr), time.Minute)
	b := NewPresenceTracker(newClient(mr), time.Minute)

	_ = a.Online(ctx, "u1")
	_ = b.Online(ctx, "u2")
	_ = b.Online(ctx, "u1")

	n, err := a.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 online users, got %d", n)
	}

	// u1 is still connected through a.
	_ = b.Offline(ctx, "u1")
	if n, _ := a.Count(ctx); n != 2 {
		t.Fatalf("expected u1 to stay online via the other instance, got %d", n)
	}

	_ = a.Offline(ctx, "u1")
	if n, _ := b.Count(ctx); n != 1 {
		t.Fatalf("expected 1 online user, got %d", n)
	}
}

func TestPresenceSurvivesDisconnectOnOtherHub(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	log, _ := logtest.NewNullLogger()
	hubA := relay.NewHub(NewPresenceTracker(newClient(mr), time.Minute), log)
	hubB := relay.NewHub(NewPresenceTracker(newClient(mr), time.Minute), log)

	if _, err := hubA.Register(ctx, "u1", "Nova"); err != nil {
		t.Fatalf("register a: %v", err)
	}
	sub, err := hubB.Register(ctx, "u1", "Nova")
	if err != nil {
		t.Fatalf("register b: %v", err)
	}
	hubB.Unregister(ctx, sub.ID)

	n, err := hubA.OnlineCount(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected u1 online through hub A, got %d", n)
	}
}

func TestPresenceTrackerIgnoresAndPrunesStaleEntries(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	p := NewPresenceTracker(newClient(mr), time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p.clock = func() time.Time { return now }

	_ = p.Online(ctx, "stale")
	now = now.Add(5 * time.Minute)
	_ = p.Online(ctx, "fresh")

	if n, _ := p.Count(ctx); n != 1 {
		t.Fatalf("expected stale entry not counted, got %d", n)
	}

	removed, err := p.Prune(ctx, time.Minute)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned, got %d", removed)
	}
	members, _ := mr.ZMembers(presenceKey)
	if len(members) != 1 || userOf(members[0]) != "fresh" {
		t.Fatalf("expected only fresh to remain, got %v", members)
	}
}
