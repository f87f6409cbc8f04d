package platform

import (
	"math"
	"testing"
)

func TestFeeSplitConservation(t *testing.T) {
	cases := []struct {
		name   string
		rate   uint64
		amount uint64
	}{
		{"zero amount", 250, 0},
		{"zero rate", 0, 1_000_000},
		{"typical", 250, 1_000_000},
		{"max rate", 1000, 1_000_000},
		{"indivisible", 333, 9999},
		{"max amount", 1000, math.MaxUint64},
		{"max amount max rate", 10000, math.MaxUint64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := Registry{FeeRateBasisPoints: tc.rate}
			celebrity, fee, err := reg.Split(tc.amount)
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if celebrity+fee != tc.amount {
				t.Fatalf("conservation violated: %d + %d != %d", celebrity, fee, tc.amount)
			}
			if fee > tc.amount {
				t.Fatalf("fee exceeds funded amount: %d > %d", fee, tc.amount)
			}
		})
	}
}

func TestFeeFloors(t *testing.T) {
	reg := Registry{FeeRateBasisPoints: 250}
	fee, err := reg.Fee(1_000_000)
	if err != nil {
		t.Fatalf("fee: %v", err)
	}
	if fee != 25_000 {
		t.Fatalf("expected 25000, got %d", fee)
	}

	// 250 bp of 399 is 9.975; floor division truncates.
	fee, err = reg.Fee(399)
	if err != nil {
		t.Fatalf("fee: %v", err)
	}
	if fee != 9 {
		t.Fatalf("expected floor 9, got %d", fee)
	}
}

func TestFeeMonotoneInRate(t *testing.T) {
	const amount = 123_456_789
	var prev uint64
	for rate := uint64(0); rate <= 1000; rate += 50 {
		reg := Registry{FeeRateBasisPoints: rate}
		fee, err := reg.Fee(amount)
		if err != nil {
			t.Fatalf("fee at rate %d: %v", rate, err)
		}
		if fee < prev {
			t.Fatalf("fee decreased when rate rose to %d: %d < %d", rate, fee, prev)
		}
		prev = fee
	}
}

func TestFeeOverflowGuard(t *testing.T) {
	// Rates beyond the denominator can push the wide product past what
	// the division can fold back into 64 bits. Structurally unreachable
	// through UpdateFeeRate, but the guard must hold anyway.
	reg := Registry{FeeRateBasisPoints: 20000}
	if _, err := reg.Fee(math.MaxUint64); err != ErrArithmeticOverflow {
		t.Fatalf("expected overflow error, got %v", err)
	}
}
