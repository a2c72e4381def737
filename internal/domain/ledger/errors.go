package ledger

import "errors"

var (
	// ErrInsufficientFunds indicates the sender balance is below the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidTransfer indicates a malformed transfer such as a self-transfer.
	ErrInvalidTransfer = errors.New("invalid transfer")
	// ErrOverflow indicates a balance would exceed the representable range.
	ErrOverflow = errors.New("balance overflow")
)
