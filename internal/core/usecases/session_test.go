package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/usecases"
)

func smallSelfDirectory() *mockDirectory {
	return &mockDirectory{
		mapMetaFn: func(ctx context.Context, userID string) (*domain.SourceMeta, error) {
			return &domain.SourceMeta{SourceID: userID, TotalPlaces: 2}, nil
		},
		ownPlacesFn: func(ctx context.Context) ([]domain.Place, error) {
			return []domain.Place{
				{ID: "p1", OwnerID: "self", Name: "Blue Bottle", TagIDs: []string{"t-coffee"}, CollectionIDs: []string{"faves"}, Location: domain.GeoPoint{Lat: 37.7, Lng: -122.4}},
				{ID: "p2", OwnerID: "self", Name: "Joe's Pizza", TagIDs: []string{"t-pizza"}, Location: domain.GeoPoint{Lat: 40.7, Lng: -74.0}},
			}, nil
		},
		tagsFn: func(ctx context.Context, userID string) ([]domain.Tag, error) {
			if userID == "" {
				return []domain.Tag{
					{ID: "t-coffee", OwnerID: "self", Name: "coffee", UsageCount: 1},
					{ID: "t-pizza", OwnerID: "self", Name: "pizza", UsageCount: 1},
				}, nil
			}
			return []domain.Tag{{ID: userID + "-tag", OwnerID: userID, Name: "Coffee", UsageCount: 7}}, nil
		},
	}
}

func newTestSession(t *testing.T, dir *mockDirectory) (*usecases.MapSession, *mockSurface) {
	t.Helper()
	surface := &mockSurface{}
	layers := usecases.NewLayerService(dir, "self")
	catalog := usecases.NewCatalogService(dir, nil, "self")
	s := usecases.NewMapSession(context.Background(), layers, catalog, surface, "self", 5*time.Millisecond, nil)
	t.Cleanup(s.Close)
	return s, surface
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func viewport() domain.Bounds {
	return domain.Bounds{South: 30, West: -130, North: 45, East: -60}
}

func TestSession_MapReadyRendersOwnPlaces(t *testing.T) {
	s, surface := newTestSession(t, smallSelfDirectory())

	s.MapReady(context.Background(), viewport())

	if n := surface.count("add"); n != 2 {
		t.Fatalf("expected 2 markers after initial load, got %d", n)
	}
	if n := surface.count("fit"); n != 1 {
		t.Errorf("fresh load must fit the viewport once, got %d", n)
	}
}

func TestSession_CollectionFilterAppliesOnlyInSelfScope(t *testing.T) {
	dir := smallSelfDirectory()
	dir.userPlacesFn = func(ctx context.Context, userID string) ([]domain.Place, error) {
		return []domain.Place{
			{ID: userID + "-a", OwnerID: userID, Name: "Somewhere", Location: domain.GeoPoint{Lat: 1, Lng: 1}},
		}, nil
	}
	s, _ := newTestSession(t, dir)
	s.MapReady(context.Background(), viewport())

	s.SetCollection("faves")
	if got := s.Visible(); len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("self scope: collection must narrow to p1, got %d places", len(got))
	}

	// Switch to layers without clearing the collection selection.
	if err := s.SetScope(context.Background(), usecases.ScopeLayers); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSources(context.Background(), []string{"u2", "u3"}); err != nil {
		t.Fatal(err)
	}

	got := s.Visible()
	if len(got) != 2 {
		t.Fatalf("layers scope: stale collection id must have no effect, got %d places", len(got))
	}
}

func TestSession_ClickTogglesSelection(t *testing.T) {
	s, surface := newTestSession(t, smallSelfDirectory())
	s.MapReady(context.Background(), viewport())
	surface.reset()

	s.Click("p1")
	if s.Selected() != "p1" {
		t.Fatalf("expected p1 selected, got %q", s.Selected())
	}
	if got := surface.idsFor("restyle"); len(got) != 1 || got[0] != "p1" {
		t.Fatalf("selection must restyle p1 only, got %v", got)
	}
	if n := surface.count("add") + surface.count("remove"); n != 0 {
		t.Errorf("selection must not redraw markers, got %d ops", n)
	}

	s.Click("p1")
	if s.Selected() != "" {
		t.Error("second click must deselect")
	}
}

func TestSession_SearchNarrowsAndRecovers(t *testing.T) {
	s, _ := newTestSession(t, smallSelfDirectory())
	s.MapReady(context.Background(), viewport())

	s.SetSearch("pizza")
	if got := s.Visible(); len(got) != 1 || got[0].ID != "p2" {
		t.Fatalf("search pizza must keep Joe's Pizza, got %d", len(got))
	}

	s.SetSearch("")
	if got := s.Visible(); len(got) != 2 {
		t.Fatalf("clearing the query must restore the full set, got %d", len(got))
	}
}

func TestSession_UnifiedTagsFollowSourceOrder(t *testing.T) {
	s, _ := newTestSession(t, smallSelfDirectory())
	s.MapReady(context.Background(), viewport())

	if err := s.SetScope(context.Background(), usecases.ScopeLayers); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSources(context.Background(), []string{"u2", "u3"}); err != nil {
		t.Fatal(err)
	}

	tags := s.UnifiedTags()
	if len(tags) != 1 {
		t.Fatalf("both sources share the tag name, expected 1 unified entry, got %d", len(tags))
	}
	if tags[0].ID != "u2-tag" {
		t.Errorf("identity must come from the first selected source, got %s", tags[0].ID)
	}
	if tags[0].UsageCount != 14 {
		t.Errorf("usage must sum across sources in scope, got %d", tags[0].UsageCount)
	}
}

func TestSession_UnifiedTagsFallBackToOwn(t *testing.T) {
	s, _ := newTestSession(t, smallSelfDirectory())
	s.MapReady(context.Background(), viewport())

	tags := s.UnifiedTags()
	if len(tags) != 2 {
		t.Fatalf("no sources selected: expected own tags, got %d entries", len(tags))
	}
}

func TestSession_LargeSourceLoadsByViewport(t *testing.T) {
	dir := smallSelfDirectory()
	dir.mapMetaFn = func(ctx context.Context, userID string) (*domain.SourceMeta, error) {
		if userID == "u-big" {
			return &domain.SourceMeta{SourceID: userID, TotalPlaces: 5000}, nil
		}
		return &domain.SourceMeta{SourceID: userID, TotalPlaces: 2}, nil
	}
	dir.inBoundsFn = func(ctx context.Context, userID string, b domain.Bounds) ([]domain.Place, error) {
		return []domain.Place{
			{ID: "in-view", OwnerID: userID, Name: "Visible", Location: domain.GeoPoint{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}},
		}, nil
	}

	s, _ := newTestSession(t, dir)
	if err := s.SetScope(context.Background(), usecases.ScopeLayers); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSources(context.Background(), []string{"u-big"}); err != nil {
		t.Fatal(err)
	}
	s.MapReady(context.Background(), viewport())

	waitUntil(t, func() bool {
		got := s.Visible()
		return len(got) == 1 && got[0].ID == "in-view"
	})
}

func TestSession_ChangeNotificationReloadsSource(t *testing.T) {
	fetches := 0
	dir := smallSelfDirectory()
	base := dir.ownPlacesFn
	dir.ownPlacesFn = func(ctx context.Context) ([]domain.Place, error) {
		fetches++
		return base(ctx)
	}

	s, _ := newTestSession(t, dir)
	s.MapReady(context.Background(), viewport())
	if fetches != 1 {
		t.Fatalf("expected 1 initial fetch, got %d", fetches)
	}

	s.HandleChange(context.Background(), domain.PlaceChange{
		What: domain.KindPlaceUpdated, OwnerID: "self", PlaceID: "p1",
	})
	if fetches != 2 {
		t.Errorf("a place change in scope must refetch the source, got %d fetches", fetches)
	}
}

func TestSession_UnknownChangeKindIsIgnored(t *testing.T) {
	s, surface := newTestSession(t, smallSelfDirectory())
	s.MapReady(context.Background(), viewport())
	surface.reset()

	s.HandleChange(context.Background(), domain.UnknownChange{RawKind: "place.starred"})

	if n := surface.count("add") + surface.count("remove"); n != 0 {
		t.Errorf("unknown change kinds must not disturb the render, got %d ops", n)
	}
}

func TestSession_ViewportDebounceCollapsesPans(t *testing.T) {
	calls := 0
	dir := smallSelfDirectory()
	dir.mapMetaFn = func(ctx context.Context, userID string) (*domain.SourceMeta, error) {
		return &domain.SourceMeta{SourceID: userID, TotalPlaces: 5000}, nil
	}
	dir.inBoundsFn = func(ctx context.Context, userID string, b domain.Bounds) ([]domain.Place, error) {
		calls++
		return nil, nil
	}
	dir.ownPlacesFn = nil

	s, _ := newTestSession(t, dir)
	s.MapReady(context.Background(), viewport())
	waitUntil(t, func() bool { return calls == 1 })

	// A fast pan: many raw signals, one fetch.
	for i := 0; i < 10; i++ {
		s.ObserveViewport(domain.Bounds{South: float64(i), West: 0, North: float64(i) + 1, East: 1})
	}
	waitUntil(t, func() bool { return calls == 2 })
	time.Sleep(50 * time.Millisecond)
	if calls != 2 {
		t.Errorf("burst must collapse into a single viewport fetch, got %d", calls)
	}
}
