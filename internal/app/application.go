package app

import (
	"context"

	"github.com/sonicpact/sonicpact/internal/app/ledger"
	dealsvc "github.com/sonicpact/sonicpact/internal/app/services/deals"
	platformsvc "github.com/sonicpact/sonicpact/internal/app/services/platform"
	"github.com/sonicpact/sonicpact/internal/app/storage"
	"github.com/sonicpact/sonicpact/internal/app/storage/memory"
	"github.com/sonicpact/sonicpact/internal/app/system"
	"github.com/sonicpact/sonicpact/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to
// the in-memory implementation.
type Stores struct {
	Platform storage.PlatformStore
	Deals    storage.DealStore
}

// Application ties the registry and the deal engine together and
// manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Ledger   ledger.Ledger
	Platform *platformsvc.Service
	Deals    *dealsvc.Service
}

// New builds a fully initialised application. A nil ledger defaults to
// the in-memory ledger.
func New(stores Stores, led ledger.Ledger, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Platform == nil {
		stores.Platform = mem
	}
	if stores.Deals == nil {
		stores.Deals = mem
	}
	if led == nil {
		led = ledger.NewMemory()
	}

	manager := system.NewManager()

	platformService := platformsvc.New(stores.Platform, log)
	dealService := dealsvc.New(platformService, stores.Deals, led, log)

	for _, name := range []string{"platform", "deals"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, err
		}
	}

	return &Application{
		manager:  manager,
		log:      log,
		Ledger:   led,
		Platform: platformService,
		Deals:    dealService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before
// Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
