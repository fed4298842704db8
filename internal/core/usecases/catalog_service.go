package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/ports"
)

// CatalogService serves the slow-moving directory catalogs (collections,
// tags, following list, map metadata) with read-through caching. The cache
// is optional; a nil cache degrades to direct directory reads.
type CatalogService struct {
	dir    ports.PlaceDirectory
	cache  ports.CacheService
	selfID string
}

// NewCatalogService creates a CatalogService for the given active user.
func NewCatalogService(dir ports.PlaceDirectory, cache ports.CacheService, selfID string) *CatalogService {
	return &CatalogService{dir: dir, cache: cache, selfID: selfID}
}

// Collections returns the active user's collections.
func (s *CatalogService) Collections(ctx context.Context) ([]domain.Collection, error) {
	key := "catalog:collections:" + s.selfID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var out []domain.Collection
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.dir.Collections(ctx)
	if err != nil {
		return nil, err
	}

	// Collections change rarely; 5 minutes is plenty.
	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, data, 300)
		}
	}
	return out, nil
}

// Tags returns a user's tags; an empty userID means the active user.
func (s *CatalogService) Tags(ctx context.Context, userID string) ([]domain.Tag, error) {
	owner := userID
	if owner == "" {
		owner = s.selfID
	}
	key := "catalog:tags:" + owner
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var out []domain.Tag
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.dir.Tags(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, data, 300)
		}
	}
	return out, nil
}

// Following returns the list of followed users available as layers.
func (s *CatalogService) Following(ctx context.Context) ([]domain.FollowedUser, error) {
	key := "catalog:following:" + s.selfID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var out []domain.FollowedUser
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.dir.Following(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, data, 300)
		}
	}
	return out, nil
}

// Meta returns the total-count snapshot for a source's map.
func (s *CatalogService) Meta(ctx context.Context, sourceID string) (*domain.SourceMeta, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("source id must not be empty")
	}
	key := "catalog:meta:" + sourceID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var out domain.SourceMeta
			if err := json.Unmarshal(data, &out); err == nil {
				return &out, nil
			}
		}
	}

	out, err := s.dir.MapMeta(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	// Counts drift as the owner saves places; keep the snapshot short-lived.
	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, data, 60)
		}
	}
	return out, nil
}

// UnifiedTags fetches the tag collections of the given sources in order and
// merges them by normalized name. An empty source list falls back to the
// active user's own tags.
func (s *CatalogService) UnifiedTags(ctx context.Context, sourceIDs []string) ([]domain.UnifiedTag, error) {
	own, err := s.Tags(ctx, "")
	if err != nil {
		return nil, err
	}
	scopes := make([]TagScope, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		tags, err := s.Tags(ctx, id)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, TagScope{OwnerID: id, Tags: tags})
	}
	return UnifyTags(scopes, own), nil
}

// InvalidateUser drops the cached catalogs affected by a change to userID's
// data. Missing keys are fine.
func (s *CatalogService) InvalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if userID == "" {
		userID = s.selfID
	}
	_ = s.cache.Delete(ctx, "catalog:tags:"+userID)
	_ = s.cache.Delete(ctx, "catalog:meta:"+userID)
	if userID == s.selfID {
		_ = s.cache.Delete(ctx, "catalog:collections:"+userID)
		_ = s.cache.Delete(ctx, "catalog:following:"+userID)
	}
}
