package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another worker owns the lock.
var ErrLockHeld = errors.New("lock is held by another worker")

type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	const op = "cache.NewRedisClient"
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

// Locker hands out short lived exclusive locks stored in Redis.
type Locker struct {
	client *redis.Client
	rs     *redsync.Redsync
	prefix string
}

func NewLocker(client *redis.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
		prefix: prefix,
	}
}

// Lock is an acquired lock; Release is safe to call more than once.
type Lock struct {
	mutex *redsync.Mutex
}

// TryAcquire takes the lock for ttl or returns ErrLockHeld.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	const op = "cache.TryAcquire"
	mutex := l.rs.NewMutex(l.prefix+key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)
	if err := mutex.TryLockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		// A failed try only means contention if someone actually holds the key.
		held, herr := l.Held(ctx, key)
		if herr != nil {
			return nil, fmt.Errorf("%s: %w", op, herr)
		}
		if !held {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, ErrLockHeld
	}
	return &Lock{mutex: mutex}, nil
}

// Held reports whether anyone currently owns key.
func (l *Locker) Held(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("cache.Held: %w", err)
	}
	return n > 0, nil
}

// Release drops the lock only if it still carries our value.
func (lk *Lock) Release(ctx context.Context) error {
	if lk == nil || lk.mutex == nil {
		return nil
	}
	if _, err := lk.mutex.UnlockContext(ctx); err != nil && !errors.Is(err, redsync.ErrLockAlreadyExpired) {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) {
			return nil
		}
		return fmt.Errorf("cache.Release: %w", err)
	}
	return nil
}
