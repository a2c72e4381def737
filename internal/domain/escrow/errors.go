package escrow

import (
	"errors"
	"fmt"
)

// Error is a domain failure with a stable numeric code.
type Error struct {
	Code uint32
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.Name, e.Code)
}

var (
	// ErrNotAuthorized indicates the caller lacks the role the operation requires.
	ErrNotAuthorized = &Error{Code: 101, Name: "NotAuthorized"}
	// ErrProjectNotFound indicates no record exists for the project id.
	ErrProjectNotFound = &Error{Code: 102, Name: "ProjectNotFound"}
	// ErrWrongStatus indicates the record is not in the required state.
	ErrWrongStatus = &Error{Code: 103, Name: "WrongStatus"}
	// ErrTransferFailed indicates the ledger refused a transfer.
	ErrTransferFailed = &Error{Code: 104, Name: "TransferFailed"}
	// ErrFeeCalculation indicates the amount or fee percentages are invalid.
	ErrFeeCalculation = &Error{Code: 105, Name: "FeeCalculationError"}
	// ErrInvalidPrincipal indicates an empty or malformed identity.
	ErrInvalidPrincipal = &Error{Code: 106, Name: "InvalidPrincipal"}
)

var (
	// ErrCorruptRecord indicates a stored record holds impossible values.
	ErrCorruptRecord = errors.New("escrow: corrupt project record")
	// ErrPartitionViolated indicates payouts do not sum to the escrowed amount.
	ErrPartitionViolated = errors.New("escrow: payout partition violated")
)

// CodeOf returns the numeric code carried by err, if any.
func CodeOf(err error) (uint32, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
