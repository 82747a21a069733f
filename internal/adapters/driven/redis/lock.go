package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

const lockPrefix = "identity:lock:"

// Lock implements DistributedLock using Redis SET NX with TTL.
//
// Every acquisition stores its own token under the key, so Release only
// deletes the key it set. A name stays held in this process until Release,
// even if the Redis key expired in the meantime.
type Lock struct {
	client  *redis.Client
	ownerID string

	mu     sync.Mutex
	tokens map[string]string
}

// NewLock creates a new Redis-backed distributed lock.
func NewLock(client *redis.Client) *Lock {
	return &Lock{
		client:  client,
		ownerID: generateOwnerID(),
		tokens:  make(map[string]string),
	}
}

// generateOwnerID identifies this lock holder as hostname:pid:uuid
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString())
}

// Acquire attempts to acquire a named lock with the given TTL.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	token := l.ownerID + ":" + uuid.NewString()

	// Reserve the name locally before going to Redis
	l.mu.Lock()
	if _, held := l.tokens[name]; held {
		l.mu.Unlock()
		return false, nil
	}
	l.tokens[name] = token
	l.mu.Unlock()

	acquired, err := l.client.SetNX(ctx, lockPrefix+name, token, ttl).Result()
	if err != nil || !acquired {
		l.mu.Lock()
		delete(l.tokens, name)
		l.mu.Unlock()
	}
	if err != nil {
		return false, oops.Code("LOCK_ACQUIRE_FAILED").With("lock", name).Wrap(err)
	}
	return acquired, nil
}

// releaseScript deletes the lock only while it still carries the token
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release releases a named lock if held by this instance.
// Safe to call even if the lock is not held or has expired.
func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	token, held := l.tokens[name]
	delete(l.tokens, name)
	l.mu.Unlock()
	if !held {
		return nil
	}

	_, err := releaseScript.Run(ctx, l.client, []string{lockPrefix + name}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return oops.Code("LOCK_RELEASE_FAILED").With("lock", name).Wrap(err)
	}
	return nil
}

// OwnerID returns the unique identifier for this lock instance.
// Lock values are the owner ID followed by a per-acquisition suffix.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
