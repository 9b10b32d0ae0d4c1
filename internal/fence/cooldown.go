package fence

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	id "roadwatch/pkg/domain"
)

// CooldownGate throttles repeated violation charges per (subject, region).
// The historical behavior bills every violating sample; a cool-down makes
// that policy explicit and tunable instead of silently amplifying charges
// while a subject sits parked inside a restricted region.
//
// Begin reports whether a new charge is allowed now and, when it is,
// starts the cool-down window. Errors are treated as "allow" by the
// engine: losing a cool-down marker must never suppress a legitimate
// first charge.
type CooldownGate interface {
	Begin(ctx context.Context, subjectID id.SubjectID, regionID id.RegionID) (bool, error)
}

// AlwaysCharge disables throttling and reproduces the historical
// bill-every-sample behavior. Used when the configured cool-down is zero.
type AlwaysCharge struct{}

func (AlwaysCharge) Begin(context.Context, id.SubjectID, id.RegionID) (bool, error) {
	return true, nil
}

type cooldownKey struct {
	subject id.SubjectID
	region  id.RegionID
}

// MemoryCooldown is the in-process gate used when redis is not configured.
type MemoryCooldown struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[cooldownKey]time.Time
	now      func() time.Time
}

func NewMemoryCooldown(interval time.Duration) *MemoryCooldown {
	return &MemoryCooldown{
		interval: interval,
		last:     make(map[cooldownKey]time.Time),
		now:      time.Now,
	}
}

func (c *MemoryCooldown) Begin(_ context.Context, subjectID id.SubjectID, regionID id.RegionID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cooldownKey{subject: subjectID, region: regionID}
	now := c.now()
	if last, ok := c.last[key]; ok && now.Sub(last) < c.interval {
		return false, nil
	}
	c.last[key] = now
	return true, nil
}

const cooldownKeyPrefix = "fence:cooldown:"

// RedisCooldown shares the cool-down window across instances via SET NX
// with expiry.
type RedisCooldown struct {
	client   *redis.Client
	interval time.Duration
}

func NewRedisCooldown(client *redis.Client, interval time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, interval: interval}
}

func (c *RedisCooldown) Begin(ctx context.Context, subjectID id.SubjectID, regionID id.RegionID) (bool, error) {
	key := cooldownKeyPrefix + subjectID.String() + ":" + regionID.String()
	return c.client.SetNX(ctx, key, "1", c.interval).Result()
}
