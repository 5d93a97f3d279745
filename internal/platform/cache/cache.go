package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hrconsole/internal/platform/config"
)

// ErrMiss is returned by Members when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a small string-set cache. Role permission sets are its only tenant today.
//
// Every key carries a generation that Invalidate bumps. Members reports the
// generation it saw, and Replace writes only while that generation is still
// current, so a fill computed from data read before an invalidation never
// lands after it.
type Store interface {
	Members(ctx context.Context, key string) (members []string, generation int64, err error)
	Replace(ctx context.Context, key string, generation int64, members []string, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// New returns a Redis-backed store when REDIS_ADDR is configured and an
// in-process store otherwise.
func New(cfg config.Config) Store {
	if cfg.RedisAddr == "" {
		return NewMemory()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("unable to reach redis, permission cache degraded", "addr", cfg.RedisAddr, "err", err)
	} else {
		slog.Info("connected to redis", "addr", cfg.RedisAddr)
	}
	return &Redis{Client: client}
}

type Redis struct {
	Client *redis.Client
}

func generationKey(key string) string {
	return key + ":gen"
}

func (r *Redis) Members(ctx context.Context, key string) ([]string, int64, error) {
	pipe := r.Client.TxPipeline()
	exists := pipe.Exists(ctx, key)
	members := pipe.SMembers(ctx, key)
	gen := pipe.Get(ctx, generationKey(key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}
	generation, err := readGeneration(gen)
	if err != nil {
		return nil, 0, err
	}
	if exists.Val() == 0 {
		return nil, generation, ErrMiss
	}
	return members.Val(), generation, nil
}

func readGeneration(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Replace stores members under key when its generation still equals
// generation, and reports whether it did. A sentinel member keeps empty
// sets distinguishable from misses.
func (r *Redis) Replace(ctx context.Context, key string, generation int64, members []string, ttl time.Duration) (bool, error) {
	values := make([]any, 0, len(members)+1)
	values = append(values, emptySentinel)
	for _, m := range members {
		values = append(values, m)
	}
	genKey := generationKey(key)
	stored := false
	err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SAdd(ctx, key, values...)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		stored = err == nil
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate drops keys and bumps their generations in one transaction.
func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := r.Client.TxPipeline()
	for _, key := range keys {
		pipe.Incr(ctx, generationKey(key))
	}
	pipe.Del(ctx, keys...)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

const emptySentinel = "\x00"

// Clean strips the sentinel written by Replace.
func Clean(members []string) []string {
	out := members[:0:0]
	for _, m := range members {
		if m != emptySentinel {
			out = append(out, m)
		}
	}
	return out
}

type memoryEntry struct {
	members []string
	expires time.Time
}

type Memory struct {
	mu          sync.Mutex
	entries     map[string]memoryEntry
	generations map[string]int64
	now         func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}, generations: map[string]int64{}, now: time.Now}
}

func (m *Memory) Members(_ context.Context, key string) ([]string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	generation := m.generations[key]
	entry, ok := m.entries[key]
	if !ok {
		return nil, generation, ErrMiss
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		delete(m.entries, key)
		return nil, generation, ErrMiss
	}
	out := make([]string, len(entry.members))
	copy(out, entry.members)
	return out, generation, nil
}

func (m *Memory) Replace(_ context.Context, key string, generation int64, members []string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[key] != generation {
		return false, nil
	}
	stored := make([]string, len(members))
	copy(stored, members)
	entry := memoryEntry{members: stored}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return true, nil
}

func (m *Memory) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.generations[key]++
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
