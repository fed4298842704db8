package ports

import (
	"context"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

// CacheService provides read-through caching of directory responses.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ChangeFeed subscribes to change notifications from the directory backend.
type ChangeFeed interface {
	// Subscribe delivers every decoded notification for the given user to
	// handler until the feed is closed. Unknown kinds are delivered as
	// domain.UnknownChange, never dropped silently.
	Subscribe(ctx context.Context, userID string, handler func(ctx context.Context, c domain.Change) error) error
	Close()
}
