package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/domain/platform"
	"github.com/sonicpact/sonicpact/internal/app/storage"
)

// Store is a thread-safe in-memory persistence layer implementing the
// storage interfaces. It is intended for tests and single-process
// deployments and deliberately keeps the implementation simple.
type Store struct {
	mu        sync.RWMutex
	platforms map[string]platform.Registry
	deals     map[string]deal.Deal
}

var _ storage.PlatformStore = (*Store)(nil)
var _ storage.DealStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		platforms: make(map[string]platform.Registry),
		deals:     make(map[string]deal.Deal),
	}
}

// PlatformStore implementation ------------------------------------------------

func (s *Store) CreatePlatform(_ context.Context, reg platform.Registry) (platform.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.platforms[reg.ID]; exists {
		return platform.Registry{}, storage.ErrAlreadyExists
	}

	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	reg.Version = 1

	s.platforms[reg.ID] = reg
	return reg, nil
}

func (s *Store) GetPlatform(_ context.Context, id string) (platform.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.platforms[id]
	if !ok {
		return platform.Registry{}, storage.ErrNotFound
	}
	return reg, nil
}

func (s *Store) SwapPlatform(_ context.Context, expectedVersion int64, reg platform.Registry) (platform.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.platforms[reg.ID]
	if !ok {
		return platform.Registry{}, storage.ErrNotFound
	}
	if original.Version != expectedVersion {
		return platform.Registry{}, storage.ErrConflict
	}

	reg.CreatedAt = original.CreatedAt
	reg.UpdatedAt = time.Now().UTC()
	reg.Version = original.Version + 1

	s.platforms[reg.ID] = reg
	return reg, nil
}

// DealStore implementation ----------------------------------------------------

func (s *Store) CreateDeal(_ context.Context, d deal.Deal) (deal.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deals[d.ID]; exists {
		return deal.Deal{}, storage.ErrAlreadyExists
	}

	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.Version = 1

	s.deals[d.ID] = d
	return d, nil
}

func (s *Store) GetDeal(_ context.Context, id string) (deal.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deals[id]
	if !ok {
		return deal.Deal{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) SwapDeal(_ context.Context, expectedVersion int64, d deal.Deal) (deal.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.deals[d.ID]
	if !ok {
		return deal.Deal{}, storage.ErrNotFound
	}
	if original.Version != expectedVersion {
		return deal.Deal{}, storage.ErrConflict
	}

	d.CreatedAt = original.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	d.Version = original.Version + 1

	s.deals[d.ID] = d
	return d, nil
}

func (s *Store) ListDeals(_ context.Context, party string) ([]deal.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]deal.Deal, 0)
	for _, d := range s.deals {
		if party == "" || d.Studio == party || d.Celebrity == party {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
