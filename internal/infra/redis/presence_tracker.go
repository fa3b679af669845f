package redis

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	presenceKey = "presence:online"
	memberSep   = "|"
)

// PresenceTracker shares online users across instances in one sorted set
// scored by last-seen unix time. Members are "<user>|<instance>", so one
// instance going offline for a user leaves the other instances' entries in
// place. Entries older than ttl are not counted and are removed by Prune.
type PresenceTracker struct {
	client   *redis.Client
	ttl      time.Duration
	instance string
	clock    func() time.Time
}

func NewPresenceTracker(client *redis.Client, ttl time.Duration) *PresenceTracker {
	return &PresenceTracker{client: client, ttl: ttl, instance: uuid.NewString(), clock: time.Now}
}

func (p *PresenceTracker) Online(ctx context.Context, userID string) error {
	return p.client.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(p.clock().Unix()),
		Member: p.member(userID),
	}).Err()
}

// Offline removes this instance's entry for userID only.
func (p *PresenceTracker) Offline(ctx context.Context, userID string) error {
	return p.client.ZRem(ctx, presenceKey, p.member(userID)).Err()
}

// Count returns the number of distinct users seen within ttl on any instance.
func (p *PresenceTracker) Count(ctx context.Context) (int, error) {
	members, err := p.client.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: p.cutoff(p.ttl),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, err
	}
	users := make(map[string]struct{}, len(members))
	for _, m := range members {
		users[userOf(m)] = struct{}{}
	}
	return len(users), nil
}

// Prune removes entries not refreshed within maxAge, whichever instance wrote them.
func (p *PresenceTracker) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := p.client.ZRemRangeByScore(ctx, presenceKey, "-inf", "("+p.cutoff(maxAge)).Result()
	return int(n), err
}

func (p *PresenceTracker) member(userID string) string {
	return userID + memberSep + p.instance
}

func (p *PresenceTracker) cutoff(age time.Duration) string {
	return strconv.FormatInt(p.clock().Add(-age).Unix(), 10)
}

func userOf(member string) string {
	if i := strings.LastIndex(member, memberSep); i >= 0 {
		return member[:i]
	}
	return member
}
