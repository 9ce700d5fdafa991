package domain

import (
	"math/big"
	"math/bits"

	"github.com/shopspring/decimal"

	dErrors "flightsurety/pkg/domain-errors"
)

// Amount is a value in gwei.
type Amount uint64

const (
	Gwei  Amount = 1
	Ether Amount = 1_000_000_000
)

const etherDecimals = 9

// ParseEther converts an ether-denominated decimal string ("0.5") to gwei.
// Sub-gwei precision is rejected rather than rounded.
func ParseEther(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid ether amount")
	}
	if d.IsNegative() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "ether amount must not be negative")
	}
	gwei := d.Shift(etherDecimals)
	if !gwei.Equal(gwei.Truncate(0)) {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "ether amount has sub-gwei precision")
	}
	bi := gwei.BigInt()
	if !bi.IsUint64() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "ether amount out of range")
	}
	return Amount(bi.Uint64()), nil
}

// Ether renders the amount in ether.
func (a Amount) Ether() string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -etherDecimals).String()
}

// Add returns a+b and whether the sum overflowed.
func (a Amount) Add(b Amount) (Amount, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	return Amount(sum), carry != 0
}

// MulDiv returns a*num/den truncated toward zero, computed with a 128-bit
// intermediate. The bool reports a zero divisor or a result beyond uint64.
func (a Amount) MulDiv(num, den uint64) (Amount, bool) {
	if den == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(uint64(a), num)
	if hi >= den {
		return 0, true
	}
	q, _ := bits.Div64(hi, lo, den)
	return Amount(q), false
}
