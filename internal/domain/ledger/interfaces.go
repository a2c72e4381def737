package ledger

import (
	"context"

	"github.com/rpggio/referydo/internal/domain/escrow"
)

// Repository persists balances and the transfer log.
type Repository interface {
	// Balance returns 0 for principals that never held value.
	Balance(ctx context.Context, p escrow.Principal) (uint64, error)
	SetBalance(ctx context.Context, p escrow.Principal, amount uint64) error
	AppendTransfer(ctx context.Context, ev *escrow.TransferEvent) error
	ListTransfers(ctx context.Context, opts ListOptions) ([]escrow.TransferEvent, error)
}

// ListOptions filters the transfer log.
type ListOptions struct {
	ProjectID *escrow.ProjectID
	Principal *escrow.Principal
	Limit     int
	Offset    int
}

// TxRunner runs fn inside a store transaction, joining one already open
// on ctx.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
