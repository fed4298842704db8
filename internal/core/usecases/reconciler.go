package usecases

import (
	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/ports"
)

// fitPaddingPx is the slack applied around the marker bounding box when the
// viewport is fitted after a fresh load.
const fitPaddingPx = 48

// MarkerReconciler keeps the drawn marker set in sync with the desired one
// using the minimal number of surface operations: markers no longer desired
// are removed, newly desired ones added, and markers whose selection state
// flipped are restyled in place rather than redrawn.
//
// Not safe for concurrent use; the owning session serializes calls.
type MarkerReconciler struct {
	surface  ports.MapSurface
	rendered map[string]domain.Marker
	fitted   bool
}

// NewMarkerReconciler creates a reconciler drawing on surface.
func NewMarkerReconciler(surface ports.MapSurface) *MarkerReconciler {
	return &MarkerReconciler{
		surface:  surface,
		rendered: make(map[string]domain.Marker),
	}
}

// Reconcile applies the diff between desired and the previously rendered
// set. On the first population after being empty it additionally fits the
// viewport to the bounding box of all placed points, exactly once, so
// incremental updates never steal the user's pan/zoom.
func (r *MarkerReconciler) Reconcile(desired []domain.Marker) {
	want := make(map[string]domain.Marker, len(desired))
	for _, m := range desired {
		want[m.ID] = m
	}

	// Fresh load: first non-empty set after being empty, or after an
	// explicit ResetView.
	freshLoad := !r.fitted && len(desired) > 0

	for id := range r.rendered {
		if _, ok := want[id]; !ok {
			r.surface.RemoveMarker(id)
			delete(r.rendered, id)
		}
	}

	for id, m := range want {
		prev, ok := r.rendered[id]
		if !ok {
			r.surface.AddMarker(m, domain.StyleFor(m.Selected))
			r.rendered[id] = m
			continue
		}
		if prev.Selected != m.Selected {
			r.surface.RestyleMarker(id, m.Selected, domain.StyleFor(m.Selected))
		}
		r.rendered[id] = m
	}

	if freshLoad {
		pts := make([]domain.GeoPoint, 0, len(desired))
		for _, m := range desired {
			pts = append(pts, m.Position)
		}
		if b, ok := domain.BoundsOf(pts); ok {
			r.surface.FitBounds(b, fitPaddingPx)
			r.fitted = true
		}
	}

	if len(r.rendered) == 0 {
		// Empty again: the next non-empty set counts as a fresh load.
		r.fitted = false
	}
}

// ResetView arms the fit-on-next-populate behavior for explicit navigation
// (switching scope or sources) without touching the rendered set.
func (r *MarkerReconciler) ResetView() {
	r.fitted = false
}

// RenderedCount returns the number of markers currently drawn.
func (r *MarkerReconciler) RenderedCount() int {
	return len(r.rendered)
}
