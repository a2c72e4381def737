package escrow

import (
	"context"
	"time"

	"github.com/rpggio/referydo/internal/domain/activity"
)

// Repository provides persistence for project records.
type Repository interface {
	// Create stores pr under the next counter value and returns it.
	Create(ctx context.Context, pr *Project) (ProjectID, error)
	Get(ctx context.Context, id ProjectID) (*Project, error)
	SetStatus(ctx context.Context, id ProjectID, status Status, updatedAt time.Time) error
}

// Ledger moves value between principals.
type Ledger interface {
	Transfer(ctx context.Context, projectID ProjectID, from, to Principal, amount uint64) (TransferEvent, error)
	Balance(ctx context.Context, p Principal) (uint64, error)
}

// WalletSource returns the current platform fee recipient.
type WalletSource interface {
	PlatformWallet(ctx context.Context) (Principal, error)
}

// ActivityLogger records audit entries.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.Entry) error
}

// TxRunner runs fn inside a single store transaction. fn must use the
// context it is given for every store call.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
