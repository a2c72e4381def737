package governance

import "errors"

var (
	// ErrNotInitialized indicates no governance state has been bootstrapped.
	ErrNotInitialized = errors.New("governance not initialized")

	// ErrCustodyMismatch indicates a configured custody account differs
	// from the one recorded when the store was first bootstrapped.
	ErrCustodyMismatch = errors.New("custody account does not match stored state")
)
