package usecases_test

import (
	"context"
	"sync"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

// --- Mock PlaceDirectory ---

type mockDirectory struct {
	ownPlacesFn     func(ctx context.Context) ([]domain.Place, error)
	userPlacesFn    func(ctx context.Context, userID string) ([]domain.Place, error)
	inBoundsFn      func(ctx context.Context, userID string, b domain.Bounds) ([]domain.Place, error)
	mapMetaFn       func(ctx context.Context, userID string) (*domain.SourceMeta, error)
	collectionsFn   func(ctx context.Context) ([]domain.Collection, error)
	tagsFn          func(ctx context.Context, userID string) ([]domain.Tag, error)
	followingFn     func(ctx context.Context) ([]domain.FollowedUser, error)
}

func (m *mockDirectory) OwnPlaces(ctx context.Context) ([]domain.Place, error) {
	if m.ownPlacesFn != nil {
		return m.ownPlacesFn(ctx)
	}
	return nil, nil
}

func (m *mockDirectory) UserPlaces(ctx context.Context, userID string) ([]domain.Place, error) {
	if m.userPlacesFn != nil {
		return m.userPlacesFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDirectory) UserPlacesInBounds(ctx context.Context, userID string, b domain.Bounds) ([]domain.Place, error) {
	if m.inBoundsFn != nil {
		return m.inBoundsFn(ctx, userID, b)
	}
	return nil, nil
}

func (m *mockDirectory) MapMeta(ctx context.Context, userID string) (*domain.SourceMeta, error) {
	if m.mapMetaFn != nil {
		return m.mapMetaFn(ctx, userID)
	}
	return &domain.SourceMeta{SourceID: userID}, nil
}

func (m *mockDirectory) Collections(ctx context.Context) ([]domain.Collection, error) {
	if m.collectionsFn != nil {
		return m.collectionsFn(ctx)
	}
	return nil, nil
}

func (m *mockDirectory) Tags(ctx context.Context, userID string) ([]domain.Tag, error) {
	if m.tagsFn != nil {
		return m.tagsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDirectory) Following(ctx context.Context) ([]domain.FollowedUser, error) {
	if m.followingFn != nil {
		return m.followingFn(ctx)
	}
	return nil, nil
}

// --- Mock MapSurface ---

// surfaceOp records a single call against the mock surface.
type surfaceOp struct {
	op       string // "add" | "remove" | "restyle" | "fit"
	id       string
	selected bool
	style    domain.MarkerStyle
	bounds   domain.Bounds
	padding  int
}

type mockSurface struct {
	mu  sync.Mutex
	ops []surfaceOp
}

func (m *mockSurface) AddMarker(mk domain.Marker, style domain.MarkerStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, surfaceOp{op: "add", id: mk.ID, selected: mk.Selected, style: style})
}

func (m *mockSurface) RemoveMarker(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, surfaceOp{op: "remove", id: id})
}

func (m *mockSurface) RestyleMarker(id string, selected bool, style domain.MarkerStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, surfaceOp{op: "restyle", id: id, selected: selected, style: style})
}

func (m *mockSurface) FitBounds(b domain.Bounds, paddingPx int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, surfaceOp{op: "fit", bounds: b, padding: paddingPx})
}

// count returns how many recorded ops match the given kind.
func (m *mockSurface) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.ops {
		if o.op == op {
			n++
		}
	}
	return n
}

// idsFor returns the marker IDs touched by ops of the given kind.
func (m *mockSurface) idsFor(op string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, o := range m.ops {
		if o.op == op {
			ids = append(ids, o.id)
		}
	}
	return ids
}

func (m *mockSurface) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	errs error // returned by Get on miss
}

func newMockCache(missErr error) *mockCache {
	return &mockCache{data: make(map[string][]byte), errs: missErr}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, m.errs
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
