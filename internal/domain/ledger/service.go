package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/referydo/internal/domain/escrow"
)

// Service implements value transfers between principals.
type Service struct {
	repo   Repository
	tx     TxRunner
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new ledger service.
func NewService(repo Repository, tx TxRunner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, tx: tx, logger: logger, now: time.Now}
}

// Transfer moves amount from one principal to another and appends the event
// to the transfer log. Zero amounts are accepted and still logged.
func (s *Service) Transfer(ctx context.Context, projectID escrow.ProjectID, from, to escrow.Principal, amount uint64) (escrow.TransferEvent, error) {
	if !from.Valid() || !to.Valid() {
		return escrow.TransferEvent{}, fmt.Errorf("%w: invalid principal", ErrInvalidTransfer)
	}
	if from == to {
		return escrow.TransferEvent{}, fmt.Errorf("%w: sender and recipient are both %s", ErrInvalidTransfer, from)
	}

	ev := escrow.TransferEvent{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Sender:    from,
		Recipient: to,
		Amount:    amount,
		CreatedAt: s.now().UTC(),
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		fromBal, err := s.repo.Balance(ctx, from)
		if err != nil {
			return fmt.Errorf("reading sender balance: %w", err)
		}
		if fromBal < amount {
			return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, fromBal, amount)
		}
		toBal, err := s.repo.Balance(ctx, to)
		if err != nil {
			return fmt.Errorf("reading recipient balance: %w", err)
		}
		if toBal > math.MaxUint64-amount {
			return fmt.Errorf("%w: %s", ErrOverflow, to)
		}
		if err := s.repo.SetBalance(ctx, from, fromBal-amount); err != nil {
			return fmt.Errorf("debiting sender: %w", err)
		}
		if err := s.repo.SetBalance(ctx, to, toBal+amount); err != nil {
			return fmt.Errorf("crediting recipient: %w", err)
		}
		if err := s.repo.AppendTransfer(ctx, &ev); err != nil {
			return fmt.Errorf("recording transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return escrow.TransferEvent{}, err
	}

	s.logger.Debug("transfer", "project_id", projectID, "sender", from, "recipient", to, "amount", amount)
	return ev, nil
}

// Credit mints amount into p's balance and returns the new balance.
func (s *Service) Credit(ctx context.Context, p escrow.Principal, amount uint64) (uint64, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: invalid principal", ErrInvalidTransfer)
	}
	var balance uint64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.Balance(ctx, p)
		if err != nil {
			return fmt.Errorf("reading balance: %w", err)
		}
		if cur > math.MaxUint64-amount {
			return fmt.Errorf("%w: %s", ErrOverflow, p)
		}
		balance = cur + amount
		return s.repo.SetBalance(ctx, p, balance)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("credited", "principal", p, "amount", amount, "balance", balance)
	return balance, nil
}

// Balance returns the current balance of p.
func (s *Service) Balance(ctx context.Context, p escrow.Principal) (uint64, error) {
	return s.repo.Balance(ctx, p)
}

// Transfers lists logged transfers oldest first.
func (s *Service) Transfers(ctx context.Context, opts ListOptions) ([]escrow.TransferEvent, error) {
	return s.repo.ListTransfers(ctx, opts)
}
