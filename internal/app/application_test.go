package app

import (
	"context"
	"testing"

	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/ledger"
)

func TestApplicationWiresDefaults(t *testing.T) {
	application, err := New(Stores{}, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if application.Platform == nil || application.Deals == nil || application.Ledger == nil {
		t.Fatal("services not wired")
	}

	ctx := context.Background()
	if err := application.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		if err := application.Stop(ctx); err != nil {
			t.Fatalf("stop: %v", err)
		}
	}()

	// The wired services share one store: a deal created through the
	// engine is visible through the engine again.
	if _, err := application.Platform.Initialize(ctx, "authority", 250); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	created, err := application.Deals.Create(ctx, "studio", "celebrity", deal.Terms{
		PaymentAmount: 1000,
		DurationDays:  7,
		UsageRights:   deal.UsageCustom,
	}, "Wired", "")
	if err != nil {
		t.Fatalf("create deal: %v", err)
	}
	if _, err := application.Deals.Get(ctx, created.ID); err != nil {
		t.Fatalf("get deal: %v", err)
	}
}

func TestApplicationAcceptsInjectedLedger(t *testing.T) {
	led := ledger.NewMemory()
	application, err := New(Stores{}, led, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if application.Ledger != led {
		t.Fatal("injected ledger not used")
	}
}
