package platform

import (
	"errors"
	"math/bits"
	"time"
)

// FeeRateCap is the maximum fee rate accepted by fee updates, in basis
// points (1000 bp = 10%). Initialization is deliberately not capped; the
// cap applies to updates only.
const FeeRateCap = 1000

// feeDenominator converts basis points to a fraction.
const feeDenominator = 10000

var (
	// ErrAlreadyInitialized is returned when the registry singleton
	// already exists.
	ErrAlreadyInitialized = errors.New("platform already initialized")

	// ErrUnauthorized is returned when the caller lacks the identity or
	// consent an operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrFeeTooHigh is returned when a fee update exceeds FeeRateCap.
	ErrFeeTooHigh = errors.New("platform fee too high (max 10%)")

	// ErrArithmeticOverflow is returned when checked arithmetic would
	// overflow. Unreachable given the fee-rate and amount bounds, but
	// corrupted accounting is worse than a hard failure.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

// Registry is the process-wide platform configuration record: the fee
// authority, the fee rate applied to funded deals, and the deal counter
// that deal identifiers derive from.
type Registry struct {
	ID                 string
	Authority          string
	FeeRateBasisPoints uint64
	TotalDeals         uint64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
}

// Fee returns floor(amount * rate / 10000) using a wide intermediate so
// no truncation happens before the division.
func (r Registry) Fee(amount uint64) (uint64, error) {
	hi, lo := bits.Mul64(amount, r.FeeRateBasisPoints)
	if hi >= feeDenominator {
		return 0, ErrArithmeticOverflow
	}
	quo, _ := bits.Div64(hi, lo, feeDenominator)
	return quo, nil
}

// Split divides a funded amount into the celebrity payout and the
// platform fee. The two always sum back to the funded amount.
func (r Registry) Split(fundedAmount uint64) (celebrityAmount, feeAmount uint64, err error) {
	feeAmount, err = r.Fee(fundedAmount)
	if err != nil {
		return 0, 0, err
	}
	if feeAmount > fundedAmount {
		return 0, 0, ErrArithmeticOverflow
	}
	return fundedAmount - feeAmount, feeAmount, nil
}
