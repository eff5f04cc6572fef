// Package invalidate forces cached per-user capability state to be
// re-derived on the affected user's next request after a role's capability
// set changes.
package invalidate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Cache keys per user. Deleting them means the next authenticated request
// re-derives capabilities from the persisted role rather than serving the
// cached copy.
const (
	capsKeyPattern     = "caps:user:%d"
	snapshotKeyPattern = "capsnap:user:%d"
)

// Invalidator clears cached capability state in Redis.
type Invalidator struct {
	client  *redis.Client
	logger  *slog.Logger
	counter prometheus.Counter
}

// New constructs an Invalidator.
func New(client *redis.Client, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{client: client, logger: logger}
}

// WithCounter attaches a counter incremented per cleared user.
func (i *Invalidator) WithCounter(c prometheus.Counter) *Invalidator {
	i.counter = c
	return i
}

// InvalidateUsers clears cached capability state for each user except
// excludeUserID. The exclusion protects the acting administrator's live
// session from losing manage_options mid-request. Failures are logged per
// user and never propagated; the primary role change has already been
// persisted by the time this runs.
func (i *Invalidator) InvalidateUsers(ctx context.Context, userIDs []int64, excludeUserID int64) int {
	cleared := 0
	for _, id := range userIDs {
		if id == excludeUserID {
			i.logger.Info("skipping capability invalidation for acting operator",
				slog.Int64("user_id", id))
			continue
		}
		if err := i.invalidateUser(ctx, id); err != nil {
			i.logger.Warn("capability invalidation failed",
				slog.Int64("user_id", id), slog.Any("error", err))
			continue
		}
		cleared++
	}
	return cleared
}

// InvalidateUser clears cached capability state for a single user.
func (i *Invalidator) InvalidateUser(ctx context.Context, userID int64) error {
	return i.invalidateUser(ctx, userID)
}

func (i *Invalidator) invalidateUser(ctx context.Context, userID int64) error {
	keys := []string{
		fmt.Sprintf(capsKeyPattern, userID),
		fmt.Sprintf(snapshotKeyPattern, userID),
	}
	if err := i.client.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	if i.counter != nil {
		i.counter.Inc()
	}
	return nil
}
