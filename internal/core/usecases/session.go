package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/ports"
	"github.com/nmacchitella/topoi/internal/pkg/geospatial"
)

// viewportMarginMeters pads bounds-scoped fetches so small pans land on
// already-cached places instead of issuing another request.
const viewportMarginMeters = 250

// MapSession is the state container for one connected map client. It owns
// the selection state, wires the bounds tracker to the layer loader, and
// funnels every mutation through named methods; nothing else writes its
// fields. All engine state is per-session and in-memory.
type MapSession struct {
	mu  sync.Mutex
	ctx context.Context
	log *slog.Logger

	selfID  string
	layers  *LayerService
	catalog *CatalogService
	recon   *MarkerReconciler
	tracker *BoundsTracker

	scope        ScopeMode
	sources      []string
	collectionID string
	tagIDs       []string
	tagMode      TagMatchMode
	query        string
	selectedID   string
	bounds       domain.Bounds
	haveBounds   bool

	ownTags   []domain.Tag
	layerTags map[string][]domain.Tag
}

// NewMapSession builds a session drawing on surface. ctx bounds the
// lifetime of background viewport loads; debounce <= 0 uses the default
// window.
func NewMapSession(ctx context.Context, layers *LayerService, catalog *CatalogService, surface ports.MapSurface, selfID string, debounce time.Duration, log *slog.Logger) *MapSession {
	if log == nil {
		log = slog.Default()
	}
	s := &MapSession{
		ctx:       ctx,
		log:       log,
		selfID:    selfID,
		layers:    layers,
		catalog:   catalog,
		recon:     NewMarkerReconciler(surface),
		scope:     ScopeSelf,
		tagMode:   TagMatchAny,
		layerTags: make(map[string][]domain.Tag),
	}
	s.tracker = NewBoundsTracker(debounce, s.onViewport)
	return s
}

// Close releases the debounce timer. The session must not render afterward.
func (s *MapSession) Close() {
	s.tracker.Close()
}

// MapReady forces the initial load once the client's map surface is up.
func (s *MapSession) MapReady(ctx context.Context, b domain.Bounds) {
	s.mu.Lock()
	if err := s.ensureSourceLocked(ctx, s.selfID); err != nil {
		s.log.Warn("initial source load failed", "source", s.selfID, "error", err)
	}
	s.mu.Unlock()
	s.tracker.Ready(b)
}

// ObserveViewport feeds a raw pan/zoom signal into the debouncer.
func (s *MapSession) ObserveViewport(b domain.Bounds) {
	s.tracker.Observe(b)
}

// onViewport is the tracker's emission path: remember the viewport, kick
// off bounds-scoped loads for every large source in scope, re-render.
func (s *MapSession) onViewport(b domain.Bounds) {
	s.mu.Lock()
	s.bounds = b
	s.haveBounds = true
	var large []string
	for _, id := range s.scopedSourcesLocked() {
		if s.layers.IsLarge(id) {
			large = append(large, id)
		}
	}
	s.refreshLocked()
	s.mu.Unlock()

	for _, id := range large {
		go s.loadViewport(id, b)
	}
}

func (s *MapSession) loadViewport(sourceID string, b domain.Bounds) {
	applied, err := s.layers.LoadViewport(s.ctx, sourceID, geospatial.ExpandBounds(b, viewportMarginMeters))
	if err != nil {
		// Stale-but-present beats blank: keep what is rendered and let the
		// next bounds change retry.
		s.log.Warn("viewport load failed", "source", sourceID, "error", err)
		return
	}
	if !applied {
		return
	}
	s.mu.Lock()
	s.refreshLocked()
	s.mu.Unlock()
}

// SetScope switches between the user's own map and aggregated layers.
func (s *MapSession) SetScope(ctx context.Context, mode ScopeMode) error {
	if mode != ScopeLayers {
		mode = ScopeSelf
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scope = mode
	var firstErr error
	for _, id := range s.scopedSourcesLocked() {
		if err := s.ensureSourceLocked(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.recon.ResetView()
	s.refreshLocked()
	return firstErr
}

// SetSources replaces the selected followed sources, fetching strategy,
// content and tag collections for any source seen for the first time.
func (s *MapSession) SetSources(ctx context.Context, sourceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources = append([]string(nil), sourceIDs...)
	var firstErr error
	for _, id := range sourceIDs {
		if err := s.ensureSourceLocked(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.recon.ResetView()
	s.refreshLocked()
	return firstErr
}

// SetCollection selects a collection filter. It only has an effect in self
// scope; the filter context makes it unrepresentable elsewhere.
func (s *MapSession) SetCollection(collectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectionID = collectionID
	s.refreshLocked()
}

// SetTags replaces the selected tag identifiers.
func (s *MapSession) SetTags(tagIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagIDs = append([]string(nil), tagIDs...)
	s.refreshLocked()
}

// SetTagMode switches between any/all tag matching.
func (s *MapSession) SetTagMode(mode TagMatchMode) {
	if mode != TagMatchAll {
		mode = TagMatchAny
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagMode = mode
	s.refreshLocked()
}

// SetSearch replaces the free-text query.
func (s *MapSession) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.refreshLocked()
}

// Click toggles selection of a place. At most one place is selected; the
// render pass restyles markers in place, it never redraws them.
func (s *MapSession) Click(placeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == placeID {
		s.selectedID = ""
	} else {
		s.selectedID = placeID
	}
	s.refreshLocked()
}

// Selected returns the currently highlighted place ID, if any.
func (s *MapSession) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// HandleChange reacts to a directory change notification: affected caches
// are invalidated and the source is reloaded under its current strategy.
func (s *MapSession) HandleChange(ctx context.Context, c domain.Change) {
	switch ch := c.(type) {
	case domain.PlaceChange:
		s.catalog.InvalidateUser(ctx, ch.OwnerID)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.layers.Invalidate(ch.OwnerID)
		delete(s.layerTags, ch.OwnerID)
		if ch.OwnerID == s.selfID {
			s.ownTags = nil
		}
		if s.inScopeLocked(ch.OwnerID) {
			if err := s.ensureSourceLocked(ctx, ch.OwnerID); err != nil {
				s.log.Warn("reload after change failed", "source", ch.OwnerID, "error", err)
			}
			s.refreshLocked()
		}
	case domain.FollowChange:
		s.catalog.InvalidateUser(ctx, s.selfID)
	case domain.UnknownChange:
		s.log.Debug("ignoring unknown change kind", "kind", ch.RawKind)
	}
}

// UnifiedTags returns the aggregated tag view for the current layer scope,
// or the user's own tags when no sources are selected.
func (s *MapSession) UnifiedTags() []domain.UnifiedTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope != ScopeLayers || len(s.sources) == 0 {
		return UnifyTags(nil, s.ownTags)
	}
	scopes := make([]TagScope, 0, len(s.sources))
	for _, id := range s.sources {
		scopes = append(scopes, TagScope{OwnerID: id, Tags: s.layerTags[id]})
	}
	return UnifyTags(scopes, s.ownTags)
}

// Visible recomputes the filtered place set from the current caches and
// selection state.
func (s *MapSession) Visible() []domain.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

// ensureSourceLocked selects a source (strategy + initial content) and
// fetches its owner's tag collection on first contact. Requires s.mu.
func (s *MapSession) ensureSourceLocked(ctx context.Context, sourceID string) error {
	large, err := s.layers.SelectSource(ctx, sourceID)
	if err != nil {
		return err
	}
	if large && s.haveBounds {
		b := s.bounds
		go s.loadViewport(sourceID, b)
	}

	if sourceID == s.selfID {
		if s.ownTags == nil {
			tags, err := s.catalog.Tags(ctx, "")
			if err != nil {
				return err
			}
			s.ownTags = tags
		}
		return nil
	}
	if _, ok := s.layerTags[sourceID]; !ok {
		tags, err := s.catalog.Tags(ctx, sourceID)
		if err != nil {
			return err
		}
		s.layerTags[sourceID] = tags
	}
	return nil
}

func (s *MapSession) scopedSourcesLocked() []string {
	if s.scope == ScopeLayers {
		return s.sources
	}
	return []string{s.selfID}
}

func (s *MapSession) inScopeLocked(sourceID string) bool {
	for _, id := range s.scopedSourcesLocked() {
		if id == sourceID {
			return true
		}
	}
	return false
}

func (s *MapSession) tagLookupLocked() TagLookup {
	lookup := make(TagLookup, len(s.layerTags)+1)
	add := func(owner string, tags []domain.Tag) {
		m := make(map[string]string, len(tags))
		for _, t := range tags {
			m[t.ID] = t.Name
		}
		lookup[owner] = m
	}
	add(s.selfID, s.ownTags)
	for owner, tags := range s.layerTags {
		add(owner, tags)
	}
	return lookup
}

func (s *MapSession) filterLocked() FilterContext {
	if s.scope == ScopeLayers {
		return LayerFilter(s.tagIDs, s.ownTags, s.tagMode, s.query)
	}
	return SelfFilter(s.collectionID, s.tagIDs, s.tagMode, s.query)
}

func (s *MapSession) visibleLocked() []domain.Place {
	var places []domain.Place
	if s.scope == ScopeLayers {
		places = s.layers.Union(s.sources)
	} else {
		places = s.layers.Places(s.selfID)
	}
	return s.filterLocked().Apply(places, s.tagLookupLocked())
}

// refreshLocked re-derives the visible set and reconciles it onto the map
// surface. Requires s.mu.
func (s *MapSession) refreshLocked() {
	visible := s.visibleLocked()
	markers := make([]domain.Marker, 0, len(visible))
	for _, p := range visible {
		markers = append(markers, domain.Marker{
			ID:       p.ID,
			Position: p.Location,
			Selected: p.ID == s.selectedID,
		})
	}
	s.recon.Reconcile(markers)
}
