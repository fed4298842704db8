package ports

import (
	"context"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

// PlaceDirectory is the remote places/collections/tags backend. The gateway
// never owns this data; it only issues idempotent reads against it.
type PlaceDirectory interface {
	// OwnPlaces returns every place of the active user.
	OwnPlaces(ctx context.Context) ([]domain.Place, error)
	// UserPlaces returns every place of a followed user.
	UserPlaces(ctx context.Context, userID string) ([]domain.Place, error)
	// UserPlacesInBounds returns a followed user's places restricted to a
	// viewport rectangle.
	UserPlacesInBounds(ctx context.Context, userID string, b domain.Bounds) ([]domain.Place, error)
	// MapMeta returns the lightweight total-count snapshot for a source.
	MapMeta(ctx context.Context, userID string) (*domain.SourceMeta, error)

	// Collections returns the active user's collections.
	Collections(ctx context.Context) ([]domain.Collection, error)
	// Tags returns a user's tags; userID "" means the active user.
	Tags(ctx context.Context, userID string) ([]domain.Tag, error)
	// Following returns the users the active user follows.
	Following(ctx context.Context) ([]domain.FollowedUser, error)
}
