package repository

import (
	"context"
	"time"
)

// VisitedRepository remembers gallery targets scraped recently.
type VisitedRepository interface {
	// MarkVisited marks a URL as visited with a specific expiry time.
	MarkVisited(ctx context.Context, url string, expiry time.Duration) error
	// IsVisited checks if a URL has been visited recently.
	IsVisited(ctx context.Context, url string) (bool, error)
	// RemoveVisited forgets a URL, used when a batch is forced.
	RemoveVisited(ctx context.Context, url string) error
}
