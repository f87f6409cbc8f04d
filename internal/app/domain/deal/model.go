package deal

import (
	"errors"
	"fmt"
	"time"
)

// Metadata bounds carried over from the on-record layout.
const (
	MaxNameLen        = 32
	MaxDescriptionLen = 96
)

var (
	// ErrInvalidDealStatus is returned when an operation is attempted
	// from a state that has no edge for it.
	ErrInvalidDealStatus = errors.New("invalid deal status for this operation")

	// ErrNameTooLong and ErrDescriptionTooLong reject oversized metadata
	// at creation.
	ErrNameTooLong        = fmt.Errorf("deal name exceeds %d characters", MaxNameLen)
	ErrDescriptionTooLong = fmt.Errorf("deal description exceeds %d characters", MaxDescriptionLen)
)

// Status is the deal state machine's discriminant. Transitions only move
// forward along the graph; Completed and Cancelled are terminal.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusAccepted  Status = "accepted"
	StatusFunded    Status = "funded"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus maps the stored string form back to a Status, rejecting
// unknown values.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusProposed, StatusAccepted, StatusFunded, StatusCompleted, StatusCancelled:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown deal status %q", raw)
}

// UsageRights enumerates the contractual usage grant in the deal terms.
type UsageRights string

const (
	UsageLimited UsageRights = "limited"
	UsageFull    UsageRights = "full"
	UsageCustom  UsageRights = "custom"
)

// ParseUsageRights maps the stored string form back to a UsageRights
// value, rejecting unknown values.
func ParseUsageRights(raw string) (UsageRights, error) {
	switch UsageRights(raw) {
	case UsageLimited, UsageFull, UsageCustom:
		return UsageRights(raw), nil
	}
	return "", fmt.Errorf("unknown usage rights %q", raw)
}

// Terms are the agreed contractual parameters. They are informational:
// the engine stores them but does not enforce them beyond validation.
type Terms struct {
	PaymentAmount uint64
	DurationDays  uint16
	UsageRights   UsageRights
	Exclusivity   bool
}

// Deal is one studio–celebrity escrow agreement. Counterparties, terms
// and metadata are immutable after creation; Status, FundedAmount and
// UpdatedAt change only through engine transitions.
type Deal struct {
	ID           string
	Studio       string
	Celebrity    string
	Platform     string
	Terms        Terms
	Name         string
	Description  string
	Status       Status
	FundedAmount uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

// ValidateMetadata checks the name and description length bounds.
func ValidateMetadata(name, description string) error {
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	if len(description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// Consent is the set of authenticated identities carried by a single
// call. Authentication happens outside the engine; the engine only
// compares identities for equality.
type Consent []string

// NewConsent builds a consent set from the given identities, dropping
// empty entries.
func NewConsent(identities ...string) Consent {
	out := make(Consent, 0, len(identities))
	for _, id := range identities {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Has reports whether the identity is present in the consent set.
func (c Consent) Has(identity string) bool {
	for _, id := range c {
		if id == identity {
			return true
		}
	}
	return false
}
