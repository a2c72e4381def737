package governance

import (
	"context"

	"github.com/rpggio/referydo/internal/domain/activity"
)

// Repository persists the governance singleton.
type Repository interface {
	// Get returns repository.ErrNotFound before the first Put.
	Get(ctx context.Context) (*State, error)
	Put(ctx context.Context, st *State) error
}

// ActivityLogger records audit entries.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.Entry) error
}

// TxRunner runs fn inside a store transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
