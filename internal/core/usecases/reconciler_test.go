package usecases_test

import (
	"sort"
	"testing"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/usecases"
)

func markers(ids ...string) []domain.Marker {
	out := make([]domain.Marker, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.Marker{ID: id, Position: domain.GeoPoint{Lat: float64(i), Lng: float64(i)}})
	}
	return out
}

func TestReconcile_MinimalDiff(t *testing.T) {
	surface := &mockSurface{}
	r := usecases.NewMarkerReconciler(surface)

	r.Reconcile(markers("a", "b", "c"))
	surface.reset()

	r.Reconcile(markers("b", "c", "d"))

	if got := surface.idsFor("remove"); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected exactly remove(a), got %v", got)
	}
	if got := surface.idsFor("add"); len(got) != 1 || got[0] != "d" {
		t.Errorf("expected exactly add(d), got %v", got)
	}
	if n := surface.count("restyle"); n != 0 {
		t.Errorf("unchanged intersection must not be restyled, got %d restyles", n)
	}
}

func TestReconcile_SelectionRestylesInPlace(t *testing.T) {
	surface := &mockSurface{}
	r := usecases.NewMarkerReconciler(surface)

	r.Reconcile(markers("a", "b"))
	surface.reset()

	desired := markers("a", "b")
	desired[1].Selected = true
	r.Reconcile(desired)

	if n := surface.count("add") + surface.count("remove"); n != 0 {
		t.Fatalf("selection change must not redraw markers, got %d add/remove ops", n)
	}
	got := surface.idsFor("restyle")
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected restyle(b) only, got %v", got)
	}
}

func TestReconcile_StylesAreDeterministic(t *testing.T) {
	sel := domain.StyleFor(true)
	base := domain.StyleFor(false)

	if sel == base {
		t.Fatal("selected and base styles must differ")
	}
	if sel.Size <= base.Size {
		t.Errorf("selected markers must render larger: %d vs %d", sel.Size, base.Size)
	}
	if sel != domain.StyleFor(true) || base != domain.StyleFor(false) {
		t.Error("styles must be pure functions of the selection state")
	}
}

func TestReconcile_FitsOncePerFreshLoad(t *testing.T) {
	surface := &mockSurface{}
	r := usecases.NewMarkerReconciler(surface)

	r.Reconcile(markers("a", "b"))
	if n := surface.count("fit"); n != 1 {
		t.Fatalf("first population must fit the viewport once, got %d", n)
	}

	// Incremental updates never steal the user's pan/zoom.
	r.Reconcile(markers("a", "b", "c"))
	r.Reconcile(markers("b", "c"))
	if n := surface.count("fit"); n != 1 {
		t.Errorf("incremental updates must not refit, got %d fits", n)
	}
}

func TestReconcile_FitsAgainAfterEmpty(t *testing.T) {
	surface := &mockSurface{}
	r := usecases.NewMarkerReconciler(surface)

	r.Reconcile(markers("a"))
	r.Reconcile(nil)
	r.Reconcile(markers("b"))

	if n := surface.count("fit"); n != 2 {
		t.Errorf("empty-to-populated counts as a fresh load, expected 2 fits, got %d", n)
	}
}

func TestReconcile_FitsAfterResetView(t *testing.T) {
	surface := &mockSurface{}
	r := usecases.NewMarkerReconciler(surface)

	r.Reconcile(markers("a", "b"))
	r.ResetView()
	r.Reconcile(markers("a", "b", "c"))

	if n := surface.count("fit"); n != 2 {
		t.Errorf("explicit navigation must refit, got %d fits", n)
	}
}

func TestReconcile_FitCoversAllPoints(t *testing.T) {
	surface := &mockSurface{}
	r := usecases.NewMarkerReconciler(surface)

	r.Reconcile([]domain.Marker{
		{ID: "sw", Position: domain.GeoPoint{Lat: -10, Lng: -20}},
		{ID: "ne", Position: domain.GeoPoint{Lat: 30, Lng: 40}},
	})

	surface.mu.Lock()
	defer surface.mu.Unlock()
	var fit *surfaceOp
	for i := range surface.ops {
		if surface.ops[i].op == "fit" {
			fit = &surface.ops[i]
		}
	}
	if fit == nil {
		t.Fatal("expected a fit operation")
	}
	want := domain.Bounds{South: -10, West: -20, North: 30, East: 40}
	if fit.bounds != want {
		t.Errorf("fit bounds %+v, want %+v", fit.bounds, want)
	}
	if fit.padding <= 0 {
		t.Error("fit must carry padding")
	}
}

func TestReconcile_RenderedCountTracksSet(t *testing.T) {
	r := usecases.NewMarkerReconciler(&mockSurface{})

	r.Reconcile(markers("a", "b", "c"))
	if r.RenderedCount() != 3 {
		t.Fatalf("expected 3 rendered, got %d", r.RenderedCount())
	}
	r.Reconcile(markers("c"))
	if r.RenderedCount() != 1 {
		t.Fatalf("expected 1 rendered, got %d", r.RenderedCount())
	}
}

func TestReconcile_AddOrderIndependentStyles(t *testing.T) {
	// Styles depend on selection only, never on insertion order.
	surface := &mockSurface{}
	r := usecases.NewMarkerReconciler(surface)
	r.Reconcile(markers("z", "a", "m"))

	surface.mu.Lock()
	defer surface.mu.Unlock()
	var styles []domain.MarkerStyle
	for _, o := range surface.ops {
		if o.op == "add" {
			styles = append(styles, o.style)
		}
	}
	sort.Slice(styles, func(i, j int) bool { return styles[i].Size < styles[j].Size })
	for _, s := range styles {
		if s != domain.StyleFor(false) {
			t.Errorf("unselected marker got style %+v", s)
		}
	}
}
