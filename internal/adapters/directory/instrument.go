package directory

import (
	"context"
	"time"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/ports"
	"github.com/nmacchitella/topoi/internal/pkg/metrics"
)

// instrumented wraps a PlaceDirectory and records per-operation latency.
type instrumented struct {
	next ports.PlaceDirectory
}

// Instrument decorates a directory with Prometheus latency histograms.
func Instrument(next ports.PlaceDirectory) ports.PlaceDirectory {
	return &instrumented{next: next}
}

func observe(op string, start time.Time) {
	metrics.DirectoryRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) OwnPlaces(ctx context.Context) ([]domain.Place, error) {
	defer observe("own_places", time.Now())
	return i.next.OwnPlaces(ctx)
}

func (i *instrumented) UserPlaces(ctx context.Context, userID string) ([]domain.Place, error) {
	defer observe("user_places", time.Now())
	return i.next.UserPlaces(ctx, userID)
}

func (i *instrumented) UserPlacesInBounds(ctx context.Context, userID string, b domain.Bounds) ([]domain.Place, error) {
	defer observe("user_places_in_bounds", time.Now())
	return i.next.UserPlacesInBounds(ctx, userID, b)
}

func (i *instrumented) MapMeta(ctx context.Context, userID string) (*domain.SourceMeta, error) {
	defer observe("map_meta", time.Now())
	return i.next.MapMeta(ctx, userID)
}

func (i *instrumented) Collections(ctx context.Context) ([]domain.Collection, error) {
	defer observe("collections", time.Now())
	return i.next.Collections(ctx)
}

func (i *instrumented) Tags(ctx context.Context, userID string) ([]domain.Tag, error) {
	defer observe("tags", time.Now())
	return i.next.Tags(ctx, userID)
}

func (i *instrumented) Following(ctx context.Context) ([]domain.FollowedUser, error) {
	defer observe("following", time.Now())
	return i.next.Following(ctx)
}
