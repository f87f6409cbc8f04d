package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/domain/platform"
	"github.com/sonicpact/sonicpact/internal/app/storage"
)

func TestCreatePlatformIsCreateIfAbsent(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreatePlatform(ctx, platform.Registry{ID: "platform", Authority: "auth"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("fresh record should be version 1, got %d", created.Version)
	}

	if _, err := store.CreatePlatform(ctx, platform.Registry{ID: "platform"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected already-exists, got %v", err)
	}
}

func TestSwapPlatformVersionGuard(t *testing.T) {
	store := New()
	ctx := context.Background()

	reg, err := store.CreatePlatform(ctx, platform.Registry{ID: "platform", Authority: "auth"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reg.FeeRateBasisPoints = 250
	updated, err := store.SwapPlatform(ctx, reg.Version, reg)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if updated.Version != reg.Version+1 {
		t.Fatalf("version not bumped: %d", updated.Version)
	}

	// A writer holding the stale version must be rejected.
	if _, err := store.SwapPlatform(ctx, reg.Version, reg); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := store.SwapPlatform(ctx, 1, platform.Registry{ID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDealLifecycleInStore(t *testing.T) {
	store := New()
	ctx := context.Background()

	d, err := store.CreateDeal(ctx, deal.Deal{
		ID:        "deal:platform:0",
		Studio:    "studio",
		Celebrity: "celebrity",
		Status:    deal.StatusProposed,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.CreateDeal(ctx, deal.Deal{ID: d.ID}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected already-exists, got %v", err)
	}

	loaded, err := store.GetDeal(ctx, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != deal.StatusProposed {
		t.Fatalf("unexpected status: %s", loaded.Status)
	}

	loaded.Status = deal.StatusAccepted
	if _, err := store.SwapDeal(ctx, loaded.Version, loaded); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if _, err := store.SwapDeal(ctx, loaded.Version, loaded); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := store.GetDeal(ctx, "deal:platform:999"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestListDealsFiltersByParty(t *testing.T) {
	store := New()
	ctx := context.Background()

	seed := []deal.Deal{
		{ID: "deal:platform:0", Studio: "studio-a", Celebrity: "celeb-a"},
		{ID: "deal:platform:1", Studio: "studio-b", Celebrity: "celeb-a"},
		{ID: "deal:platform:2", Studio: "studio-b", Celebrity: "celeb-b"},
	}
	for _, d := range seed {
		if _, err := store.CreateDeal(ctx, d); err != nil {
			t.Fatalf("seed %s: %v", d.ID, err)
		}
	}

	all, err := store.ListDeals(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %v (%d)", err, len(all))
	}

	mine, err := store.ListDeals(ctx, "celeb-a")
	if err != nil || len(mine) != 2 {
		t.Fatalf("list by party: %v (%d)", err, len(mine))
	}
	for _, d := range mine {
		if d.Studio != "celeb-a" && d.Celebrity != "celeb-a" {
			t.Fatalf("stray deal in filtered list: %s", d.ID)
		}
	}
}
