package usecases

import (
	"strings"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

// NormalizeTagName is the canonical form used to match tags across owners:
// case-insensitive, surrounding whitespace ignored.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// TagScope is one owner's tag collection, in the order the owner was
// selected.
type TagScope struct {
	OwnerID string
	Tags    []domain.Tag
}

// UnifyTags merges tag collections from several owners into a single view
// keyed by normalized name. Usage counts for same-named tags are summed;
// identity, color and icon come from the first scope that carried the name,
// so the result is deterministic in scope input order. When no scopes are
// selected the active user's own tags are returned unmodified.
//
// The merge never rewrites owner-scoped tag identifiers; it is presentation
// aggregation only. Filtering against an aggregated tag must therefore
// compare by normalized name, not by ID.
func UnifyTags(scopes []TagScope, own []domain.Tag) []domain.UnifiedTag {
	if len(scopes) == 0 {
		out := make([]domain.UnifiedTag, 0, len(own))
		for _, t := range own {
			out = append(out, domain.UnifiedTag{
				ID:         t.ID,
				Name:       t.Name,
				Color:      t.Color,
				Icon:       t.Icon,
				UsageCount: t.UsageCount,
			})
		}
		return out
	}

	index := make(map[string]int)
	var out []domain.UnifiedTag
	for _, scope := range scopes {
		for _, t := range scope.Tags {
			key := NormalizeTagName(t.Name)
			if key == "" {
				continue
			}
			if i, ok := index[key]; ok {
				out[i].UsageCount += t.UsageCount
				continue
			}
			index[key] = len(out)
			out = append(out, domain.UnifiedTag{
				ID:         t.ID,
				Name:       t.Name,
				Color:      t.Color,
				Icon:       t.Icon,
				UsageCount: t.UsageCount,
			})
		}
	}
	return out
}

// NamesForTagIDs resolves selected tag identifiers to normalized names via
// the viewer's own tag collection. Identifiers that no longer resolve (tag
// deleted mid-session) are dropped rather than treated as an error.
func NamesForTagIDs(own []domain.Tag, ids []string) map[string]bool {
	byID := make(map[string]string, len(own))
	for _, t := range own {
		byID[t.ID] = NormalizeTagName(t.Name)
	}
	names := make(map[string]bool, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok && name != "" {
			names[name] = true
		}
	}
	return names
}
