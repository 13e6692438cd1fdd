package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const (
	keyStaff    = "directory:staff:"
	keyEligible = "directory:eligible:"
	keyAllStaff = "directory:staff-all"
)

// Cached memoizes directory reads in Redis for a short TTL. Redis errors
// are logged and the call falls through to the wrapped Directory.
// Workload counts are never cached; only the slowly changing staff data is.
type Cached struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps next. A nil client or a non-positive ttl returns next
// unchanged.
func NewCached(next Directory, client *redis.Client, ttl time.Duration, logger *zap.Logger) Directory {
	if client == nil || ttl <= 0 {
		return next
	}
	return &Cached{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *Cached) GetStaff(ctx context.Context, staffID string) (*domain.StaffMember, error) {
	var member domain.StaffMember
	if c.load(ctx, keyStaff+staffID, &member) {
		return &member, nil
	}
	found, err := c.next.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyStaff+staffID, found)
	return found, nil
}

func (c *Cached) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	var members []domain.StaffMember
	if c.load(ctx, keyAllStaff, &members) {
		return members, nil
	}
	members, err := c.next.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyAllStaff, members)
	return members, nil
}

func (c *Cached) ListEligibleStaff(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	if c.load(ctx, keyEligible+projectID, &ids) {
		return ids, nil
	}
	ids, err := c.next.ListEligibleStaff(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyEligible+projectID, ids)
	return ids, nil
}

func (c *Cached) IsEligible(ctx context.Context, staffID, projectID string) (bool, error) {
	ids, err := c.ListEligibleStaff(ctx, projectID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == staffID {
			return true, nil
		}
	}
	return false, nil
}

// ProjectExists is not cached so a freshly created project is usable at
// once.
func (c *Cached) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return c.next.ProjectExists(ctx, projectID)
}

func (c *Cached) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("directory cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cached) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}
