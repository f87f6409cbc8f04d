package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JournalEntry records one executed transfer for audit.
type JournalEntry struct {
	ID     string
	From   string
	To     string
	Amount uint64
	At     time.Time
}

// Memory is a thread-safe in-memory ledger. Vault accounts are ordinary
// accounts under a reserved prefix; transfers out of them require the
// matching custody handle.
type Memory struct {
	mu       sync.RWMutex
	balances map[string]uint64
	journal  []JournalEntry
}

var _ Ledger = (*Memory)(nil)

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]uint64)}
}

// Credit seeds an account balance. Intended for tests and bootstrap.
func (m *Memory) Credit(account string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.balances[account]
	if current+amount < current {
		return ErrBalanceOverflow
	}
	m.balances[account] = current + amount
	return nil
}

func (m *Memory) Transfer(_ context.Context, from, to string, amount uint64) error {
	if strings.HasPrefix(from, "vault:") {
		// Vault debits go through TransferFromVault only.
		return ErrVaultUnauthorized
	}
	return m.move(from, to, amount)
}

func (m *Memory) TransferFromVault(_ context.Context, handle VaultHandle, to string, amount uint64) error {
	if handle.DealID == "" {
		return ErrVaultUnauthorized
	}
	return m.move(handle.Account(), to, amount)
}

func (m *Memory) Balance(_ context.Context, account string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[account], nil
}

// Journal returns a copy of the executed-transfer log.
func (m *Memory) Journal() []JournalEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]JournalEntry, len(m.journal))
	copy(out, m.journal)
	return out
}

func (m *Memory) move(from, to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == 0 {
		return nil
	}
	balance, ok := m.balances[from]
	if !ok {
		return ErrUnknownAccount
	}
	if balance < amount {
		return ErrInsufficientFunds
	}
	dest := m.balances[to]
	if dest+amount < dest {
		return ErrBalanceOverflow
	}

	m.balances[from] = balance - amount
	m.balances[to] = dest + amount
	m.journal = append(m.journal, JournalEntry{
		ID:     uuid.NewString(),
		From:   from,
		To:     to,
		Amount: amount,
		At:     time.Now().UTC(),
	})
	return nil
}
