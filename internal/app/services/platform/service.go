package platform

import (
	"context"
	"errors"

	domain "github.com/sonicpact/sonicpact/internal/app/domain/platform"
	"github.com/sonicpact/sonicpact/internal/app/storage"
	"github.com/sonicpact/sonicpact/pkg/logger"
)

// DefaultID keys the registry singleton. One registry exists per
// deployment.
const DefaultID = "platform"

// maxSwapRetries bounds the compare-and-swap loops so a pathological
// write storm fails loudly instead of spinning.
const maxSwapRetries = 16

// Service owns the platform registry: fee configuration and the deal
// sequence counter.
type Service struct {
	store storage.PlatformStore
	log   *logger.Logger
}

// New constructs a platform registry service.
func New(store storage.PlatformStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("platform")
	}
	return &Service{store: store, log: log}
}

// Initialize creates the registry singleton with a zero deal counter.
// The fee rate is intentionally not capped here: only UpdateFeeRate
// enforces the cap, mirroring the deployed program's behavior.
func (s *Service) Initialize(ctx context.Context, authority string, feeRateBasisPoints uint64) (domain.Registry, error) {
	if authority == "" {
		return domain.Registry{}, domain.ErrUnauthorized
	}

	created, err := s.store.CreatePlatform(ctx, domain.Registry{
		ID:                 DefaultID,
		Authority:          authority,
		FeeRateBasisPoints: feeRateBasisPoints,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return domain.Registry{}, domain.ErrAlreadyInitialized
	}
	if err != nil {
		return domain.Registry{}, err
	}

	s.log.WithField("authority", authority).
		WithField("fee_bp", feeRateBasisPoints).
		Info("platform initialized")
	return created, nil
}

// Get loads the registry record.
func (s *Service) Get(ctx context.Context) (domain.Registry, error) {
	return s.store.GetPlatform(ctx, DefaultID)
}

// UpdateFeeRate overwrites the fee rate. Authority-only, capped at
// FeeRateCap. Fees already computed for completed deals are unaffected;
// the rate is read at resolution time.
func (s *Service) UpdateFeeRate(ctx context.Context, caller string, newRate uint64) (domain.Registry, error) {
	for attempt := 0; attempt < maxSwapRetries; attempt++ {
		reg, err := s.store.GetPlatform(ctx, DefaultID)
		if err != nil {
			return domain.Registry{}, err
		}
		if caller != reg.Authority {
			return domain.Registry{}, domain.ErrUnauthorized
		}
		if newRate > domain.FeeRateCap {
			return domain.Registry{}, domain.ErrFeeTooHigh
		}

		reg.FeeRateBasisPoints = newRate
		updated, err := s.store.SwapPlatform(ctx, reg.Version, reg)
		if errors.Is(err, storage.ErrConflict) {
			continue
		}
		if err != nil {
			return domain.Registry{}, err
		}

		s.log.WithField("fee_bp", newRate).Info("platform fee updated")
		return updated, nil
	}
	return domain.Registry{}, storage.ErrConflict
}

// ReserveSequence atomically increments the deal counter and returns the
// pre-increment value. No two reservations observe the same sequence
// number, even under concurrent deal creation.
func (s *Service) ReserveSequence(ctx context.Context) (domain.Registry, uint64, error) {
	for attempt := 0; attempt < maxSwapRetries; attempt++ {
		reg, err := s.store.GetPlatform(ctx, DefaultID)
		if err != nil {
			return domain.Registry{}, 0, err
		}

		seq := reg.TotalDeals
		if reg.TotalDeals+1 == 0 {
			return domain.Registry{}, 0, domain.ErrArithmeticOverflow
		}
		reg.TotalDeals++

		updated, err := s.store.SwapPlatform(ctx, reg.Version, reg)
		if errors.Is(err, storage.ErrConflict) {
			continue
		}
		if err != nil {
			return domain.Registry{}, 0, err
		}
		return updated, seq, nil
	}
	return domain.Registry{}, 0, storage.ErrConflict
}
