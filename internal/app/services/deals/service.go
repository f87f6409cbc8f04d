package deals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/domain/platform"
	"github.com/sonicpact/sonicpact/internal/app/ledger"
	"github.com/sonicpact/sonicpact/internal/app/metrics"
	platformsvc "github.com/sonicpact/sonicpact/internal/app/services/platform"
	"github.com/sonicpact/sonicpact/internal/app/storage"
	"github.com/sonicpact/sonicpact/pkg/logger"
)

// ErrLedgerTransfer marks failures propagated from the ledger. The
// wrapped cause is preserved; the deal record is left untouched.
var ErrLedgerTransfer = errors.New("ledger transfer failed")

// Service is the deal engine: it owns the per-deal state machine,
// authorization checks, custody bookkeeping, and fee/payout
// computation. The platform registry is injected, never looked up
// through ambient state.
type Service struct {
	registry *platformsvc.Service
	store    storage.DealStore
	ledger   ledger.Ledger
	log      *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a deal engine.
func New(registry *platformsvc.Service, store storage.DealStore, led ledger.Ledger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("deals")
	}
	return &Service{
		registry: registry,
		store:    store,
		ledger:   led,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// DealID derives the deterministic identifier for the seq-th deal of a
// platform. Identifiers are unique and sequential per platform.
func DealID(platformID string, seq uint64) string {
	return fmt.Sprintf("deal:%s:%d", platformID, seq)
}

// lockDeal serializes transitions per deal identifier. The store's
// compare-and-swap still guards cross-process writers; the lock keeps
// ledger transfers and the record update of one transition together.
func (s *Service) lockDeal(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Create proposes a new deal. No funds move; the deal starts in
// Proposed and receives the next sequence-derived identifier.
func (s *Service) Create(ctx context.Context, studio, celebrity string, terms deal.Terms, name, description string) (deal.Deal, error) {
	if studio == "" || celebrity == "" {
		return deal.Deal{}, fmt.Errorf("studio and celebrity identities are required")
	}
	if studio == celebrity {
		return deal.Deal{}, fmt.Errorf("studio and celebrity must be distinct identities")
	}
	if err := deal.ValidateMetadata(name, description); err != nil {
		return deal.Deal{}, err
	}
	if _, err := deal.ParseUsageRights(string(terms.UsageRights)); err != nil {
		return deal.Deal{}, err
	}

	reg, seq, err := s.registry.ReserveSequence(ctx)
	if err != nil {
		return deal.Deal{}, err
	}

	created, err := s.store.CreateDeal(ctx, deal.Deal{
		ID:          DealID(reg.ID, seq),
		Studio:      studio,
		Celebrity:   celebrity,
		Platform:    reg.ID,
		Terms:       terms,
		Name:        name,
		Description: description,
		Status:      deal.StatusProposed,
	})
	if err != nil {
		return deal.Deal{}, err
	}

	metrics.ObserveDealTransition("create")
	s.log.WithField("deal_id", created.ID).WithField("name", name).Info("deal created")
	return created, nil
}

// Get loads a deal by identifier.
func (s *Service) Get(ctx context.Context, id string) (deal.Deal, error) {
	return s.store.GetDeal(ctx, id)
}

// List returns deals where the identity is a counterparty, or all deals
// for an empty identity.
func (s *Service) List(ctx context.Context, party string) ([]deal.Deal, error) {
	return s.store.ListDeals(ctx, party)
}

// Accept moves a proposed deal to Accepted. Celebrity only. The status
// check precedes the authorization check so error reporting is
// deterministic.
func (s *Service) Accept(ctx context.Context, id, caller string) (deal.Deal, error) {
	unlock := s.lockDeal(id)
	defer unlock()

	d, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return deal.Deal{}, err
	}
	if d.Status != deal.StatusProposed {
		return deal.Deal{}, deal.ErrInvalidDealStatus
	}
	if caller != d.Celebrity {
		return deal.Deal{}, platform.ErrUnauthorized
	}

	d.Status = deal.StatusAccepted
	updated, err := s.store.SwapDeal(ctx, d.Version, d)
	if err != nil {
		return deal.Deal{}, err
	}

	metrics.ObserveDealTransition("accept")
	s.log.WithField("deal_id", id).Info("deal accepted")
	return updated, nil
}

// Fund moves an accepted deal to Funded, transferring amount from the
// studio into the deal's custody vault. A failed transfer aborts the
// operation with the record unchanged.
func (s *Service) Fund(ctx context.Context, id, caller string, amount uint64) (deal.Deal, error) {
	unlock := s.lockDeal(id)
	defer unlock()

	d, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return deal.Deal{}, err
	}
	if d.Status != deal.StatusAccepted {
		return deal.Deal{}, deal.ErrInvalidDealStatus
	}
	if caller != d.Studio {
		return deal.Deal{}, platform.ErrUnauthorized
	}
	if amount == 0 {
		return deal.Deal{}, fmt.Errorf("funding amount must be positive")
	}

	vault := ledger.VaultFor(d.ID)
	if err := s.ledger.Transfer(ctx, d.Studio, vault.Account(), amount); err != nil {
		return deal.Deal{}, fmt.Errorf("%w: %w", ErrLedgerTransfer, err)
	}

	d.FundedAmount = amount
	d.Status = deal.StatusFunded
	updated, err := s.store.SwapDeal(ctx, d.Version, d)
	if err != nil {
		// The vault was already credited; return the funds before
		// surfacing the conflict so no money is stranded.
		if rbErr := s.ledger.TransferFromVault(ctx, vault, d.Studio, amount); rbErr != nil {
			s.log.WithError(rbErr).WithField("deal_id", id).Error("fund rollback failed")
		}
		return deal.Deal{}, err
	}

	metrics.ObserveDealTransition("fund")
	metrics.AddEscrowedFunds(float64(amount))
	s.log.WithField("deal_id", id).WithField("amount", amount).Info("deal funded")
	return updated, nil
}

// Complete releases a funded deal's escrow: the celebrity receives the
// funded amount minus the platform fee, the platform authority receives
// the fee. Either counterparty may trigger the release; payout
// destinations are fixed regardless of the triggering party.
func (s *Service) Complete(ctx context.Context, id, caller string) (deal.Deal, error) {
	unlock := s.lockDeal(id)
	defer unlock()

	d, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return deal.Deal{}, err
	}
	if d.Status != deal.StatusFunded {
		return deal.Deal{}, deal.ErrInvalidDealStatus
	}
	if caller != d.Studio && caller != d.Celebrity {
		return deal.Deal{}, platform.ErrUnauthorized
	}

	reg, err := s.registry.Get(ctx)
	if err != nil {
		return deal.Deal{}, err
	}
	celebrityAmount, feeAmount, err := reg.Split(d.FundedAmount)
	if err != nil {
		return deal.Deal{}, err
	}

	vault := ledger.VaultFor(d.ID)
	if err := s.ledger.TransferFromVault(ctx, vault, d.Celebrity, celebrityAmount); err != nil {
		return deal.Deal{}, fmt.Errorf("%w: %w", ErrLedgerTransfer, err)
	}
	// The vault holds exactly FundedAmount, so after the celebrity leg
	// it holds exactly the fee; this leg cannot underfund.
	if err := s.ledger.TransferFromVault(ctx, vault, reg.Authority, feeAmount); err != nil {
		return deal.Deal{}, fmt.Errorf("%w: %w", ErrLedgerTransfer, err)
	}

	d.Status = deal.StatusCompleted
	updated, err := s.store.SwapDeal(ctx, d.Version, d)
	if err != nil {
		return deal.Deal{}, err
	}

	metrics.ObserveDealTransition("complete")
	metrics.AddEscrowedFunds(-float64(d.FundedAmount))
	s.log.WithField("deal_id", id).
		WithField("celebrity_amount", celebrityAmount).
		WithField("fee_amount", feeAmount).
		Info("deal completed")
	return updated, nil
}

// Cancel moves a non-terminal deal to Cancelled. Authorization depends
// on the current state: Proposed requires the studio, Accepted either
// party, Funded both parties' consent in the same call. A funded
// cancellation refunds the full escrow to the studio first.
func (s *Service) Cancel(ctx context.Context, id string, consent deal.Consent) (deal.Deal, error) {
	unlock := s.lockDeal(id)
	defer unlock()

	d, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return deal.Deal{}, err
	}
	if d.Status.Terminal() {
		return deal.Deal{}, deal.ErrInvalidDealStatus
	}

	var authorized bool
	switch d.Status {
	case deal.StatusProposed:
		authorized = consent.Has(d.Studio)
	case deal.StatusAccepted:
		authorized = consent.Has(d.Studio) || consent.Has(d.Celebrity)
	case deal.StatusFunded:
		authorized = consent.Has(d.Studio) && consent.Has(d.Celebrity)
	default:
		return deal.Deal{}, deal.ErrInvalidDealStatus
	}
	if !authorized {
		return deal.Deal{}, platform.ErrUnauthorized
	}

	refunded := d.Status == deal.StatusFunded
	if refunded {
		vault := ledger.VaultFor(d.ID)
		if err := s.ledger.TransferFromVault(ctx, vault, d.Studio, d.FundedAmount); err != nil {
			return deal.Deal{}, fmt.Errorf("%w: %w", ErrLedgerTransfer, err)
		}
	}

	d.Status = deal.StatusCancelled
	updated, err := s.store.SwapDeal(ctx, d.Version, d)
	if err != nil {
		return deal.Deal{}, err
	}

	metrics.ObserveDealTransition("cancel")
	if refunded {
		metrics.AddEscrowedFunds(-float64(d.FundedAmount))
	}
	s.log.WithField("deal_id", id).WithField("refunded", refunded).Info("deal cancelled")
	return updated, nil
}
