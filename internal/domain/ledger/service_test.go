package ledger_test

import (
	"context"
	"math"
	"testing"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/domain/ledger"
	"github.com/rpggio/referydo/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_Transfer(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LedgerRepository{}
	tx := &mocks.TxRunner{}

	repo.On("Balance", ctx, escrow.Principal("alice")).Return(uint64(100), nil)
	repo.On("Balance", ctx, escrow.Principal("bob")).Return(uint64(5), nil)
	repo.On("SetBalance", ctx, escrow.Principal("alice"), uint64(60)).Return(nil)
	repo.On("SetBalance", ctx, escrow.Principal("bob"), uint64(45)).Return(nil)
	repo.On("AppendTransfer", ctx, mock.MatchedBy(func(ev *escrow.TransferEvent) bool {
		return ev.Sender == "alice" && ev.Recipient == "bob" && ev.Amount == 40 && ev.ProjectID == 7
	})).Return(nil)

	svc := ledger.NewService(repo, tx, nil)
	ev, err := svc.Transfer(ctx, 7, "alice", "bob", 40)
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, uint64(40), ev.Amount)
	require.Equal(t, 1, tx.Calls)
	repo.AssertExpectations(t)
}

func TestLedgerService_TransferRejections(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LedgerRepository{}
	svc := ledger.NewService(repo, &mocks.TxRunner{}, nil)

	_, err := svc.Transfer(ctx, 1, "alice", "alice", 1)
	require.ErrorIs(t, err, ledger.ErrInvalidTransfer)

	_, err = svc.Transfer(ctx, 1, "", "bob", 1)
	require.ErrorIs(t, err, ledger.ErrInvalidTransfer)

	repo.On("Balance", ctx, escrow.Principal("alice")).Return(uint64(10), nil)
	_, err = svc.Transfer(ctx, 1, "alice", "bob", 11)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	repo.On("Balance", ctx, escrow.Principal("whale")).Return(uint64(math.MaxUint64), nil)
	_, err = svc.Transfer(ctx, 1, "alice", "whale", 1)
	require.ErrorIs(t, err, ledger.ErrOverflow)

	repo.AssertNotCalled(t, "SetBalance", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "AppendTransfer", mock.Anything, mock.Anything)
}

func TestLedgerService_ZeroTransferIsLogged(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LedgerRepository{}
	repo.On("Balance", ctx, mock.Anything).Return(uint64(0), nil)
	repo.On("SetBalance", ctx, mock.Anything, uint64(0)).Return(nil)
	repo.On("AppendTransfer", ctx, mock.Anything).Return(nil)

	svc := ledger.NewService(repo, &mocks.TxRunner{}, nil)
	ev, err := svc.Transfer(ctx, 1, "custody", "scout", 0)
	require.NoError(t, err)
	require.Zero(t, ev.Amount)
	repo.AssertNumberOfCalls(t, "AppendTransfer", 1)
}

func TestLedgerService_Credit(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LedgerRepository{}
	repo.On("Balance", ctx, escrow.Principal("alice")).Return(uint64(5), nil)
	repo.On("SetBalance", ctx, escrow.Principal("alice"), uint64(25)).Return(nil)

	svc := ledger.NewService(repo, &mocks.TxRunner{}, nil)
	bal, err := svc.Credit(ctx, "alice", 20)
	require.NoError(t, err)
	require.Equal(t, uint64(25), bal)

	_, err = svc.Credit(ctx, "bad principal", 1)
	require.ErrorIs(t, err, ledger.ErrInvalidTransfer)
}
