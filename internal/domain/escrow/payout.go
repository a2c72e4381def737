package escrow

import (
	"fmt"
	"math/bits"
)

// Payout is the three-way split of an escrowed amount.
type Payout struct {
	Talent   uint64 `json:"talent"`
	Scout    uint64 `json:"scout"`
	Platform uint64 `json:"platform"`
}

// Total returns the sum of all shares.
func (p Payout) Total() uint64 {
	return p.Talent + p.Scout + p.Platform
}

// CalculatePayout splits amount into scout and platform shares rounded down
// and gives the talent the remainder, so the shares always sum to amount.
func CalculatePayout(amount, scoutFeePercent, platformFeePercent uint64) (Payout, error) {
	if err := ValidateFees(amount, scoutFeePercent, platformFeePercent); err != nil {
		return Payout{}, err
	}

	scout := percentOf(amount, scoutFeePercent)
	platform := percentOf(amount, platformFeePercent)
	p := Payout{
		Scout:    scout,
		Platform: platform,
		Talent:   amount - scout - platform,
	}
	if p.Total() != amount {
		return Payout{}, fmt.Errorf("%w: %d != %d", ErrPartitionViolated, p.Total(), amount)
	}
	return p, nil
}

// percentOf returns floor(amount * percent / 100) without overflowing.
// percent must be <= 100, which keeps the high word of the product below
// the divisor.
func percentOf(amount, percent uint64) uint64 {
	hi, lo := bits.Mul64(amount, percent)
	q, _ := bits.Div64(hi, lo, MaxPercent)
	return q
}
