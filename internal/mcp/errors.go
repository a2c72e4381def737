package mcp

import (
	"errors"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/transport"
)

// ErrUnknownMethod is returned for methods the handler does not serve.
var ErrUnknownMethod = errors.New("unknown method")

// MapError converts a service error into the wire error object. Domain
// failures keep their numeric code and name; everything else is internal.
func MapError(err error) *transport.Error {
	if err == nil {
		return nil
	}
	var rpcErr *transport.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	// Checked before *escrow.Error: a corrupt record may wrap a fee error.
	if errors.Is(err, escrow.ErrCorruptRecord) || errors.Is(err, escrow.ErrPartitionViolated) {
		return internalError()
	}
	var domainErr *escrow.Error
	if errors.As(err, &domainErr) {
		return &transport.Error{Code: int(domainErr.Code), Message: domainErr.Name, Data: err.Error()}
	}
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return &transport.Error{Code: transport.ErrMethodNotFound, Message: "method not found", Data: err.Error()}
	case errors.Is(err, activity.ErrInvalidInput):
		return &transport.Error{Code: transport.ErrInvalidParams, Message: "invalid params", Data: err.Error()}
	default:
		return internalError()
	}
}

func internalError() *transport.Error {
	return &transport.Error{Code: transport.ErrInternal, Message: "internal error"}
}

func invalidParams(err error) *transport.Error {
	return &transport.Error{Code: transport.ErrInvalidParams, Message: "invalid params", Data: err.Error()}
}
