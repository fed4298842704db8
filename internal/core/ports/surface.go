package ports

import (
	"github.com/nmacchitella/topoi/internal/core/domain"
)

// MapSurface is the rendering primitive the reconciler draws on. It accepts
// individual marker operations plus a fit-to-bounds trigger; viewport and
// click events travel the other way, outside this interface.
type MapSurface interface {
	AddMarker(m domain.Marker, style domain.MarkerStyle)
	RemoveMarker(id string)
	// RestyleMarker updates an existing marker in place, without a
	// remove/re-add cycle.
	RestyleMarker(id string, selected bool, style domain.MarkerStyle)
	// FitBounds pans/zooms the surface so b is visible with paddingPx of
	// slack on every edge.
	FitBounds(b domain.Bounds, paddingPx int)
}
