package domain

import (
	"time"
)

// Place is a single saved point of interest. It is owned exclusively by the
// user who created it; collections and tags reference it through membership
// lists, they never own it.
type Place struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	Location      GeoPoint  `json:"location"`
	Notes         string    `json:"notes,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Website       string    `json:"website,omitempty"`
	Hours         string    `json:"hours,omitempty"`
	CollectionIDs []string  `json:"collection_ids,omitempty"`
	TagIDs        []string  `json:"tag_ids,omitempty"`
	Public        bool      `json:"public"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InCollection reports whether the place belongs to the given collection.
func (p *Place) InCollection(collectionID string) bool {
	for _, id := range p.CollectionIDs {
		if id == collectionID {
			return true
		}
	}
	return false
}

// HasTag reports whether the place carries the given tag identifier.
func (p *Place) HasTag(tagID string) bool {
	for _, id := range p.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// Collection is a named, user-owned grouping of places. PlaceCount is
// derived by the directory, never maintained locally.
type Collection struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	Icon       string    `json:"icon,omitempty"`
	Public     bool      `json:"public"`
	PlaceCount int       `json:"place_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Tag is a user-owned label. Tag identity is owner-scoped: two users' tags
// with the same name are distinct entities with distinct IDs.
type Tag struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// UnifiedTag is a presentation-layer aggregation of same-named tags across
// owners. ID, Color and Icon come from the first owner scope that carried
// the name; UsageCount is summed across all scopes in view.
type UnifiedTag struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Icon       string `json:"icon,omitempty"`
	UsageCount int    `json:"usage_count"`
}

// FollowedUser identifies a followed user whose map can be overlaid as a layer.
type FollowedUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// SourceMeta is the lightweight per-source metadata used only to pick a
// load strategy. It must never be treated as authoritative for rendering.
type SourceMeta struct {
	SourceID    string    `json:"source_id"`
	TotalPlaces int       `json:"total_places"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Marker is a point handed to the map surface for rendering.
type Marker struct {
	ID       string   `json:"id"`
	Position GeoPoint `json:"position"`
	Selected bool     `json:"selected"`
}

// MarkerStyle is the visual treatment of a marker. It is a pure function of
// the selection state, see StyleFor.
type MarkerStyle struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

const (
	markerBaseColor   = "#2f6fed"
	markerAccentColor = "#e8553a"
)

// StyleFor returns the deterministic style for a marker: selected markers
// render larger and in the accent color.
func StyleFor(selected bool) MarkerStyle {
	if selected {
		return MarkerStyle{Size: 44, Color: markerAccentColor}
	}
	return MarkerStyle{Size: 32, Color: markerBaseColor}
}
