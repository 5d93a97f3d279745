package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hrconsole/internal/platform/cache"
)

type keySource interface {
	PermissionKeys(ctx context.Context, roleID string) ([]string, error)
}

// Checker answers "does this role hold key" for the permission middleware.
// Role key sets are cached and dropped whenever a role's map changes.
type Checker struct {
	Store keySource
	Cache cache.Store
	TTL   time.Duration
}

func NewChecker(store keySource, c cache.Store, ttl time.Duration) *Checker {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Checker{Store: store, Cache: c, TTL: ttl}
}

func CacheKey(roleID string) string {
	return "perm:" + roleID
}

func (c *Checker) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	keys, err := c.Keys(ctx, roleID)
	if err != nil {
		return false, err
	}
	for _, key := range keys {
		if key == permission {
			return true, nil
		}
	}
	return false, nil
}

// Keys returns the role's permission keys. On a miss the set is loaded from
// the store and cached only if no Invalidate for the role ran in between.
func (c *Checker) Keys(ctx context.Context, roleID string) ([]string, error) {
	key := CacheKey(roleID)
	members, generation, err := c.Cache.Members(ctx, key)
	if err == nil {
		return cache.Clean(members), nil
	}
	cacheable := errors.Is(err, cache.ErrMiss)
	if !cacheable {
		slog.Warn("permission cache read failed", "roleId", roleID, "err", err)
	}

	keys, err := c.Store.PermissionKeys(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !cacheable {
		return keys, nil
	}
	stored, err := c.Cache.Replace(ctx, key, generation, keys, c.TTL)
	if err != nil {
		slog.Warn("permission cache write failed", "roleId", roleID, "err", err)
	} else if !stored {
		slog.Debug("permission cache fill skipped, role changed during load", "roleId", roleID)
	}
	return keys, nil
}

// Invalidate drops the cached sets of roleIDs. Fills already in flight for
// those roles are discarded.
func (c *Checker) Invalidate(ctx context.Context, roleIDs ...string) {
	if len(roleIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		keys = append(keys, CacheKey(id))
	}
	if err := c.Cache.Invalidate(ctx, keys...); err != nil {
		slog.Warn("permission cache invalidation failed", "roles", roleIDs, "err", err)
	}
}
