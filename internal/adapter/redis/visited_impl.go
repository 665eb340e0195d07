package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/dashboard-scraper/pkg/utils"
)

const visitedTargetPrefix = "dashboard:visited:"

// VisitedRepoImpl remembers recently scraped gallery targets in Redis.
type VisitedRepoImpl struct {
	client redis.UniversalClient
}

// NewVisitedRepo creates a new instance of VisitedRepoImpl.
func NewVisitedRepo(client redis.UniversalClient) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client}
}

func (r *VisitedRepoImpl) key(target string) string {
	return fmt.Sprintf("%s%s", visitedTargetPrefix, utils.HashURL(target))
}

// MarkVisited stores the target with an expiry; SETEX is atomic.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, target string, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.key(target), time.Now().UTC().Format(time.RFC3339), expiry).Err()
}

func (r *VisitedRepoImpl) IsVisited(ctx context.Context, target string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(target)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RemoveVisited forgets a target so a forced batch scrapes it again.
func (r *VisitedRepoImpl) RemoveVisited(ctx context.Context, target string) error {
	return r.client.Del(ctx, r.key(target)).Err()
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}
