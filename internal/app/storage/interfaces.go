package storage

import (
	"context"
	"errors"

	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/domain/platform"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by create-if-absent operations when
	// the key is taken.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConflict is returned by compare-and-swap operations when the
	// record changed since it was read.
	ErrConflict = errors.New("record version conflict")
)

// PlatformStore persists the singleton platform registry record.
// SwapPlatform applies the update only if the stored version still
// matches expectedVersion; concurrent writers are serialized that way.
type PlatformStore interface {
	CreatePlatform(ctx context.Context, reg platform.Registry) (platform.Registry, error)
	GetPlatform(ctx context.Context, id string) (platform.Registry, error)
	SwapPlatform(ctx context.Context, expectedVersion int64, reg platform.Registry) (platform.Registry, error)
}

// DealStore persists deal records with the same create-if-absent and
// compare-and-swap semantics.
type DealStore interface {
	CreateDeal(ctx context.Context, d deal.Deal) (deal.Deal, error)
	GetDeal(ctx context.Context, id string) (deal.Deal, error)
	SwapDeal(ctx context.Context, expectedVersion int64, d deal.Deal) (deal.Deal, error)
	// ListDeals returns deals where the identity is a counterparty, or
	// every deal when the identity is empty.
	ListDeals(ctx context.Context, party string) ([]deal.Deal, error)
}
