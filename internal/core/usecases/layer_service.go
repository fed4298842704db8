package usecases

import (
	"context"
	"sync"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/ports"
)

// LargeSourceThreshold is the total place count at which a source switches
// from eager full loading to lazy viewport loading.
const LargeSourceThreshold = 1000

// sourceEntry is the per-source cache. For large sources it only ever holds
// the most recently requested viewport, never the full set.
type sourceEntry struct {
	meta   *domain.SourceMeta
	large  bool
	places []domain.Place

	// Viewport request ordering. A response applies only if no response
	// from a later request has already been applied.
	issuedSeq  uint64
	appliedSeq uint64
}

// LayerService owns the per-source place caches and the load strategy
// decision. It is the only writer of cache entries; everything else reads.
type LayerService struct {
	mu     sync.Mutex
	dir    ports.PlaceDirectory
	selfID string

	sources map[string]*sourceEntry
}

// NewLayerService creates a LayerService for the given active user.
func NewLayerService(dir ports.PlaceDirectory, selfID string) *LayerService {
	return &LayerService{
		dir:     dir,
		selfID:  selfID,
		sources: make(map[string]*sourceEntry),
	}
}

// SelectSource ensures sourceID has a strategy and initial cache content.
// Small sources (total below LargeSourceThreshold) are fetched whole in one
// request; large sources start with an empty entry and are filled per
// viewport. Re-selecting an already-selected source is a no-op unless the
// entry was invalidated in between.
func (s *LayerService) SelectSource(ctx context.Context, sourceID string) (large bool, err error) {
	s.mu.Lock()
	if e, ok := s.sources[sourceID]; ok && e.meta != nil {
		large = e.large
		s.mu.Unlock()
		return large, nil
	}
	s.mu.Unlock()

	meta, err := s.dir.MapMeta(ctx, sourceID)
	if err != nil {
		return false, &FetchError{Source: sourceID, Retryable: true, Err: err}
	}

	if meta.TotalPlaces >= LargeSourceThreshold {
		s.mu.Lock()
		s.sources[sourceID] = &sourceEntry{meta: meta, large: true}
		s.mu.Unlock()
		return true, nil
	}

	var places []domain.Place
	if sourceID == s.selfID {
		places, err = s.dir.OwnPlaces(ctx)
	} else {
		places, err = s.dir.UserPlaces(ctx, sourceID)
	}
	if err != nil {
		// Leave whatever was cached before untouched.
		return false, &FetchError{Source: sourceID, Retryable: true, Err: err}
	}

	s.mu.Lock()
	s.sources[sourceID] = &sourceEntry{meta: meta, places: places}
	s.mu.Unlock()
	return false, nil
}

// LoadViewport fetches a large source's places for the given bounds and
// replaces the cache entry content with the response. Responses landing
// after a later request's response has been applied are discarded, so a
// slow early fetch can never overwrite a fast later one. The applied return
// reports whether the cache changed.
func (s *LayerService) LoadViewport(ctx context.Context, sourceID string, b domain.Bounds) (applied bool, err error) {
	s.mu.Lock()
	e, ok := s.sources[sourceID]
	if !ok {
		s.mu.Unlock()
		return false, ErrUnknownSource
	}
	if !e.large {
		s.mu.Unlock()
		return false, nil
	}
	e.issuedSeq++
	seq := e.issuedSeq
	issued := e
	s.mu.Unlock()

	places, err := s.dir.UserPlacesInBounds(ctx, sourceID, b)
	if err != nil {
		// Previous viewport content stays rendered; the next bounds change
		// will retry naturally.
		return false, &FetchError{Source: sourceID, Retryable: true, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok = s.sources[sourceID]
	if !ok || e != issued {
		// Invalidated while in flight. Sequence numbers belong to one entry
		// generation; a response issued against a deleted entry must never
		// touch its replacement, which may not even be large anymore.
		return false, nil
	}
	if seq < e.appliedSeq {
		return false, nil
	}
	e.places = places
	e.appliedSeq = seq
	return true, nil
}

// Invalidate drops a source's entry so the next SelectSource refetches
// metadata and content.
func (s *LayerService) Invalidate(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, sourceID)
}

// IsLarge reports the strategy classification of a selected source.
func (s *LayerService) IsLarge(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sources[sourceID]
	return ok && e.large
}

// Meta returns the metadata snapshot for a selected source, or nil.
func (s *LayerService) Meta(sourceID string) *domain.SourceMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sources[sourceID]; ok {
		return e.meta
	}
	return nil
}

// Places returns a copy of the cached places for one source.
func (s *LayerService) Places(sourceID string) []domain.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sources[sourceID]
	if !ok {
		return nil
	}
	out := make([]domain.Place, len(e.places))
	copy(out, e.places)
	return out
}

// Union returns the flattened cached places of the given sources, in
// source order.
func (s *LayerService) Union(sourceIDs []string) []domain.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Place
	for _, id := range sourceIDs {
		if e, ok := s.sources[id]; ok {
			out = append(out, e.places...)
		}
	}
	return out
}
