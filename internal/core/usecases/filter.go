package usecases

import (
	"strings"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

// ScopeMode selects whose places are in view.
type ScopeMode string

const (
	// ScopeSelf shows only the active user's own places.
	ScopeSelf ScopeMode = "self"
	// ScopeLayers shows the union of the selected followed sources.
	ScopeLayers ScopeMode = "layers"
)

// TagMatchMode controls how multiple selected tags combine.
type TagMatchMode string

const (
	// TagMatchAny keeps a place carrying at least one selected tag.
	TagMatchAny TagMatchMode = "any"
	// TagMatchAll keeps only places carrying every selected tag.
	TagMatchAll TagMatchMode = "all"
)

// TagLookup maps owner ID to that owner's tag-ID-to-name table. The filter
// needs it to compare tags across owners and to search tag names.
type TagLookup map[string]map[string]string

// Name resolves a tag ID within its owner's scope.
func (l TagLookup) Name(ownerID, tagID string) (string, bool) {
	tags, ok := l[ownerID]
	if !ok {
		return "", false
	}
	name, ok := tags[tagID]
	return name, ok
}

// FilterContext is the typed filter for one scope. Only the constructors
// can build it, so a collection filter in layers scope is unrepresentable:
// SelfFilter carries one, LayerFilter has no field for it.
type FilterContext struct {
	scope        ScopeMode
	collectionID string
	tagIDs       map[string]bool // self scope: compare by identifier
	tagNames     map[string]bool // layers scope: compare by normalized name
	tagMode      TagMatchMode
	query        string
}

// SelfFilter builds the filter for the active user's own map. Tags are
// matched by identifier since every place carries the viewer's own tag IDs.
func SelfFilter(collectionID string, tagIDs []string, mode TagMatchMode, query string) FilterContext {
	ids := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		ids[id] = true
	}
	if mode != TagMatchAll {
		mode = TagMatchAny
	}
	return FilterContext{
		scope:        ScopeSelf,
		collectionID: collectionID,
		tagIDs:       ids,
		tagMode:      mode,
		query:        query,
	}
}

// LayerFilter builds the filter for aggregated followed sources. Selected
// tag IDs are re-resolved to normalized names through the viewer's own tag
// collection, because places from other owners carry their owners' tag IDs.
// A selected ID that no longer resolves is silently dropped. Collections
// are owner-private, so no collection filter exists in this scope.
func LayerFilter(selectedTagIDs []string, ownTags []domain.Tag, mode TagMatchMode, query string) FilterContext {
	if mode != TagMatchAll {
		mode = TagMatchAny
	}
	return FilterContext{
		scope:    ScopeLayers,
		tagNames: NamesForTagIDs(ownTags, selectedTagIDs),
		tagMode:  mode,
		query:    query,
	}
}

// Scope returns the scope the context was built for.
func (f FilterContext) Scope() ScopeMode { return f.scope }

// Apply runs the collection, tag and free-text filters in order over the
// places in scope. It is pure: re-derivable at any time from the current
// caches and selection state.
func (f FilterContext) Apply(places []domain.Place, tags TagLookup) []domain.Place {
	out := make([]domain.Place, 0, len(places))
	for i := range places {
		if f.matches(&places[i], tags) {
			out = append(out, places[i])
		}
	}
	return out
}

func (f FilterContext) matches(p *domain.Place, tags TagLookup) bool {
	if f.scope == ScopeSelf && f.collectionID != "" && !p.InCollection(f.collectionID) {
		return false
	}
	if !f.matchesTags(p, tags) {
		return false
	}
	return f.matchesQuery(p, tags)
}

func (f FilterContext) matchesTags(p *domain.Place, tags TagLookup) bool {
	if f.scope == ScopeSelf {
		if len(f.tagIDs) == 0 {
			return true
		}
		// Set-based coverage: a place carrying a duplicated tag ID must not
		// count it twice toward all-mode.
		matched := make(map[string]bool, len(f.tagIDs))
		for _, id := range p.TagIDs {
			if f.tagIDs[id] {
				matched[id] = true
			}
		}
		if f.tagMode == TagMatchAll {
			return len(matched) >= len(f.tagIDs)
		}
		return len(matched) > 0
	}

	if len(f.tagNames) == 0 {
		return true
	}
	seen := make(map[string]bool, len(p.TagIDs))
	for _, id := range p.TagIDs {
		if name, ok := tags.Name(p.OwnerID, id); ok {
			n := NormalizeTagName(name)
			if f.tagNames[n] {
				seen[n] = true
			}
		}
	}
	if f.tagMode == TagMatchAll {
		return len(seen) >= len(f.tagNames)
	}
	return len(seen) > 0
}

func (f FilterContext) matchesQuery(p *domain.Place, tags TagLookup) bool {
	q := strings.ToLower(strings.TrimSpace(f.query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Address), q) ||
		strings.Contains(strings.ToLower(p.Notes), q) {
		return true
	}
	for _, id := range p.TagIDs {
		if name, ok := tags.Name(p.OwnerID, id); ok {
			if strings.Contains(strings.ToLower(name), q) {
				return true
			}
		}
	}
	return false
}
