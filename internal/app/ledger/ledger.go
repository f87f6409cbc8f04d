package ledger

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when the source account cannot
	// cover the transfer amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownAccount is returned when a referenced account does not
	// exist.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrVaultUnauthorized is returned when a vault transfer carries a
	// handle that is not bound to the vault's deal.
	ErrVaultUnauthorized = errors.New("vault handle not authorized for this vault")

	// ErrBalanceOverflow is returned when crediting an account would
	// overflow its balance.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// VaultHandle is the custody authority for one deal's vault. Vault
// transfers are authorized by the handle's binding to the deal, never by
// a counterparty identity. Handles are derived, not issued, so holding a
// handle only matters to a ledger that actually has the vault.
type VaultHandle struct {
	DealID string
}

// Account returns the vault's ledger account name, derived from the
// deal identifier the same way the deal's records are keyed.
func (h VaultHandle) Account() string {
	return fmt.Sprintf("vault:%s", h.DealID)
}

// VaultFor derives the custody handle for a deal's vault.
func VaultFor(dealID string) VaultHandle {
	return VaultHandle{DealID: dealID}
}

// Ledger is the abstract runtime that holds and moves native currency.
// Every transfer is atomic: it debits and credits exactly the amount or
// fails entirely with no partial effect.
type Ledger interface {
	// Transfer moves amount from one identity's account to another,
	// authorized by the caller's already-authenticated identity.
	Transfer(ctx context.Context, from, to string, amount uint64) error

	// TransferFromVault moves amount out of a deal vault, authorized by
	// the vault's custody handle.
	TransferFromVault(ctx context.Context, handle VaultHandle, to string, amount uint64) error

	// Balance reports an account's current balance.
	Balance(ctx context.Context, account string) (uint64, error)
}
