package mocks

import (
	"context"
	"time"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/domain/governance"
	"github.com/rpggio/referydo/internal/domain/ledger"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for escrow.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, pr *escrow.Project) (escrow.ProjectID, error) {
	args := m.Called(ctx, pr)
	return args.Get(0).(escrow.ProjectID), args.Error(1)
}

func (m *ProjectRepository) Get(ctx context.Context, id escrow.ProjectID) (*escrow.Project, error) {
	args := m.Called(ctx, id)
	if pr, ok := args.Get(0).(*escrow.Project); ok {
		// copy of the fixture
		cp := *pr
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) SetStatus(ctx context.Context, id escrow.ProjectID, status escrow.Status, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

// Ledger is a mock for escrow.Ledger.
type Ledger struct {
	mock.Mock
}

func (m *Ledger) Transfer(ctx context.Context, projectID escrow.ProjectID, from, to escrow.Principal, amount uint64) (escrow.TransferEvent, error) {
	args := m.Called(ctx, projectID, from, to, amount)
	return args.Get(0).(escrow.TransferEvent), args.Error(1)
}

func (m *Ledger) Balance(ctx context.Context, p escrow.Principal) (uint64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(uint64), args.Error(1)
}

// WalletSource is a mock for escrow.WalletSource.
type WalletSource struct {
	mock.Mock
}

func (m *WalletSource) PlatformWallet(ctx context.Context) (escrow.Principal, error) {
	args := m.Called(ctx)
	return args.Get(0).(escrow.Principal), args.Error(1)
}

// ActivityLogger is a mock for the activity sink used by services.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// GovernanceRepository is a mock for governance.Repository.
type GovernanceRepository struct {
	mock.Mock
}

func (m *GovernanceRepository) Get(ctx context.Context) (*governance.State, error) {
	args := m.Called(ctx)
	if st, ok := args.Get(0).(*governance.State); ok {
		cp := *st
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *GovernanceRepository) Put(ctx context.Context, st *governance.State) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

// LedgerRepository is a mock for ledger.Repository.
type LedgerRepository struct {
	mock.Mock
}

func (m *LedgerRepository) Balance(ctx context.Context, p escrow.Principal) (uint64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *LedgerRepository) SetBalance(ctx context.Context, p escrow.Principal, amount uint64) error {
	args := m.Called(ctx, p, amount)
	return args.Error(0)
}

func (m *LedgerRepository) AppendTransfer(ctx context.Context, ev *escrow.TransferEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *LedgerRepository) ListTransfers(ctx context.Context, opts ledger.ListOptions) ([]escrow.TransferEvent, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]escrow.TransferEvent); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TxRunner runs fn directly on the caller's context. Rollback is not
// simulated.
type TxRunner struct {
	Calls int
}

func (m *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}
