package fence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// SubjectLocker serializes sample processing per subject. Two concurrent
// samples for the same subject must not both observe "not previously
// inside" and both write enter — this is a correctness requirement, not an
// optimization.
type SubjectLocker interface {
	// Lock blocks until the subject lock is held or ctx is done. The
	// returned function releases the lock.
	Lock(ctx context.Context, subjectID id.SubjectID) (func(), error)
}

// KeyedMutex is the in-process locker used when redis is not configured.
// Entries are kept for the lifetime of the process; the subject population
// per instance is small enough that this does not need eviction.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[id.SubjectID]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[id.SubjectID]*sync.Mutex)}
}

func (k *KeyedMutex) Lock(_ context.Context, subjectID id.SubjectID) (func(), error) {
	k.mu.Lock()
	m, ok := k.locks[subjectID]
	if !ok {
		m = &sync.Mutex{}
		k.locks[subjectID] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

const subjectLockKeyPrefix = "fence:lock:subject:"

// RedisLocker coordinates across instances with SET NX + TTL. The TTL
// bounds how long a crashed holder can block a subject.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, subjectID id.SubjectID) (func(), error) {
	key := subjectLockKeyPrefix + subjectID.String()
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUnavailable, "subject lock unavailable", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(dErrors.CodeUnavailable, "subject lock wait cancelled", ctx.Err())
		case <-time.After(25 * time.Millisecond):
		}
	}

	release := func() {
		// Only delete if we still hold it; an expired lock may have been
		// re-acquired by another instance.
		const script = `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			end
			return 0
		`
		_ = l.client.Eval(context.Background(), script, []string{key}, token).Err()
	}
	return release, nil
}
