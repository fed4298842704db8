package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/usecases"
)

var errCacheMiss = errors.New("cache miss")

func TestCatalog_TagsReadThrough(t *testing.T) {
	fetches := 0
	dir := &mockDirectory{
		tagsFn: func(ctx context.Context, userID string) ([]domain.Tag, error) {
			fetches++
			return []domain.Tag{{ID: "t1", OwnerID: "self", Name: "coffee"}}, nil
		},
	}
	cache := newMockCache(errCacheMiss)
	svc := usecases.NewCatalogService(dir, cache, "self")

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tags, err := svc.Tags(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(tags) != 1 || tags[0].Name != "coffee" {
			t.Fatalf("bad tags on read %d: %+v", i, tags)
		}
	}
	if fetches != 1 {
		t.Errorf("repeat reads must come from cache, got %d fetches", fetches)
	}
}

func TestCatalog_InvalidateUserForcesRefetch(t *testing.T) {
	fetches := 0
	dir := &mockDirectory{
		tagsFn: func(ctx context.Context, userID string) ([]domain.Tag, error) {
			fetches++
			return nil, nil
		},
	}
	cache := newMockCache(errCacheMiss)
	svc := usecases.NewCatalogService(dir, cache, "self")

	ctx := context.Background()
	if _, err := svc.Tags(ctx, "u2"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Tags(ctx, "u2"); err != nil {
		t.Fatal(err)
	}
	svc.InvalidateUser(ctx, "u2")
	if _, err := svc.Tags(ctx, "u2"); err != nil {
		t.Fatal(err)
	}

	if fetches != 2 {
		t.Errorf("invalidation must force a refetch, got %d fetches", fetches)
	}
}

func TestCatalog_NilCacheDegrades(t *testing.T) {
	fetches := 0
	dir := &mockDirectory{
		collectionsFn: func(ctx context.Context) ([]domain.Collection, error) {
			fetches++
			return []domain.Collection{{ID: "c1"}}, nil
		},
	}
	svc := usecases.NewCatalogService(dir, nil, "self")

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Collections(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if fetches != 2 {
		t.Errorf("without a cache every read goes to the directory, got %d", fetches)
	}
}

func TestCatalog_MetaRequiresSourceID(t *testing.T) {
	svc := usecases.NewCatalogService(&mockDirectory{}, nil, "self")
	if _, err := svc.Meta(context.Background(), ""); err == nil {
		t.Error("empty source id must error")
	}
}

func TestCatalog_UnifiedTagsFetchOrder(t *testing.T) {
	var order []string
	dir := &mockDirectory{
		tagsFn: func(ctx context.Context, userID string) ([]domain.Tag, error) {
			order = append(order, userID)
			return nil, nil
		},
	}
	svc := usecases.NewCatalogService(dir, nil, "self")

	if _, err := svc.UnifiedTags(context.Background(), []string{"u2", "u3"}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "" || order[1] != "u2" || order[2] != "u3" {
		t.Errorf("merge identity depends on fetch order, got %v", order)
	}
}
