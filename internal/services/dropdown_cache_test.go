package services

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDropdownCache_TTL(t *testing.T) {
	cache := NewMemoryDropdownCache(5 * time.Minute)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	v := &AllDropdowns{InstitutionType: "School", Dropdowns: map[string]*BulkCategory{}}
	cache.Set(ctx, 1, v)

	if got, ok := cache.Get(ctx, 1); !ok || got != v {
		t.Fatal("expected a fresh hit")
	}
	if _, ok := cache.Get(ctx, 2); ok {
		t.Error("entries are keyed by institution type id")
	}

	now = now.Add(5*time.Minute - time.Second)
	if _, ok := cache.Get(ctx, 1); !ok {
		t.Error("entry should still be valid just before the TTL")
	}

	now = now.Add(time.Second)
	if _, ok := cache.Get(ctx, 1); ok {
		t.Error("entry should expire at the TTL")
	}
}

func TestMemoryDropdownCache_Invalidate(t *testing.T) {
	cache := NewMemoryDropdownCache(time.Hour)
	ctx := context.Background()

	cache.Set(ctx, 1, &AllDropdowns{InstitutionType: "School"})
	cache.Set(ctx, 2, &AllDropdowns{InstitutionType: "College"})

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	for _, id := range []uint{1, 2} {
		if _, ok := cache.Get(ctx, id); ok {
			t.Errorf("entry %d should be gone", id)
		}
	}
}

func TestMemoryDropdownCache_ZeroTTLDisables(t *testing.T) {
	cache := NewMemoryDropdownCache(0)
	ctx := context.Background()

	cache.Set(ctx, 1, &AllDropdowns{})
	if _, ok := cache.Get(ctx, 1); ok {
		t.Error("zero TTL must not cache")
	}
}

func TestNoopDropdownCache(t *testing.T) {
	var cache DropdownCache = NoopDropdownCache{}
	ctx := context.Background()

	cache.Set(ctx, 1, &AllDropdowns{})
	if _, ok := cache.Get(ctx, 1); ok {
		t.Error("noop cache never hits")
	}
	if cache.Backend() != "none" {
		t.Errorf("Backend() = %q", cache.Backend())
	}
}
