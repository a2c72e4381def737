package escrow

import "fmt"

// MaxPercent is the upper bound of each fee and of their sum.
const MaxPercent = 100

// ValidateFees checks the creation-time amount and fee constraints.
func ValidateFees(amount, scoutFeePercent, platformFeePercent uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrFeeCalculation)
	}
	if scoutFeePercent > MaxPercent {
		return fmt.Errorf("%w: scout fee %d%% exceeds %d%%", ErrFeeCalculation, scoutFeePercent, MaxPercent)
	}
	if platformFeePercent > MaxPercent {
		return fmt.Errorf("%w: platform fee %d%% exceeds %d%%", ErrFeeCalculation, platformFeePercent, MaxPercent)
	}
	// Both are <= 100 here, so the sum cannot overflow.
	if scoutFeePercent+platformFeePercent > MaxPercent {
		return fmt.Errorf("%w: combined fees %d%% exceed %d%%",
			ErrFeeCalculation, scoutFeePercent+platformFeePercent, MaxPercent)
	}
	return nil
}
