package store

import (
	"context"
	"testing"
	"time"

	"github.com/capverde/posagent/internal/order"
)

func menuFixture(cachedAt time.Time) []order.MenuItem {
	return []order.MenuItem{
		{ID: "m-1", Name: "Assiette Cachupa", Category: "Plats", UnitPrice: 10.00, CachedAt: cachedAt},
		{ID: "m-2", Name: "Pastel", Category: "Entrees", UnitPrice: 2.00, CachedAt: cachedAt},
		{ID: "m-3", Name: "Jus de goyave", Category: "Boissons", UnitPrice: 3.50, CachedAt: cachedAt},
	}
}

func TestReplaceMenuCache_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cachedAt := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	if err := s.ReplaceMenuCache(ctx, menuFixture(cachedAt)); err != nil {
		t.Fatalf("ReplaceMenuCache() failed: %v", err)
	}

	got, err := s.ReadMenuCache(ctx)
	if err != nil {
		t.Fatalf("ReadMenuCache() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}
	// Ordered by category then name
	if got[0].Category != "Boissons" || got[1].Category != "Entrees" || got[2].Category != "Plats" {
		t.Errorf("unexpected ordering: %+v", got)
	}
	if !got[0].CachedAt.Equal(cachedAt) {
		t.Errorf("CachedAt = %v, want %v", got[0].CachedAt, cachedAt)
	}
}

func TestReplaceMenuCache_ClearThenRepopulate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cachedAt := time.Now().UTC()

	if err := s.ReplaceMenuCache(ctx, menuFixture(cachedAt)); err != nil {
		t.Fatalf("first ReplaceMenuCache() failed: %v", err)
	}

	// A refresh fully replaces the snapshot - nothing from the first
	// load may survive.
	replacement := []order.MenuItem{
		{ID: "m-9", Name: "Catchupa rica", Category: "Plats", UnitPrice: 12.00, CachedAt: cachedAt},
	}
	if err := s.ReplaceMenuCache(ctx, replacement); err != nil {
		t.Fatalf("second ReplaceMenuCache() failed: %v", err)
	}

	got, err := s.ReadMenuCache(ctx)
	if err != nil {
		t.Fatalf("ReadMenuCache() failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m-9" {
		t.Errorf("stale entries mixed into fresh snapshot: %+v", got)
	}
}

func TestReplaceMenuCache_EmptyListClears(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceMenuCache(ctx, menuFixture(time.Now().UTC())); err != nil {
		t.Fatalf("ReplaceMenuCache() failed: %v", err)
	}
	if err := s.ReplaceMenuCache(ctx, nil); err != nil {
		t.Fatalf("ReplaceMenuCache(nil) failed: %v", err)
	}

	got, err := s.ReadMenuCache(ctx)
	if err != nil {
		t.Fatalf("ReadMenuCache() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("cache not cleared: %+v", got)
	}
}
