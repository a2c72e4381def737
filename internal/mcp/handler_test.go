package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/transport"
)

type escrowStub struct {
	createFn func(context.Context, escrow.Principal, escrow.CreateRequest) (*escrow.Receipt, error)
	moveFn   func(context.Context, string, escrow.Principal, escrow.ProjectID) (*escrow.Receipt, error)
	getFn    func(context.Context, escrow.ProjectID) (*escrow.Project, error)
}

func (s escrowStub) CreateProject(ctx context.Context, caller escrow.Principal, req escrow.CreateRequest) (*escrow.Receipt, error) {
	return s.createFn(ctx, caller, req)
}
func (s escrowStub) FundEscrow(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error) {
	return s.moveFn(ctx, "fund", caller, id)
}
func (s escrowStub) AcceptProject(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error) {
	return s.moveFn(ctx, "accept", caller, id)
}
func (s escrowStub) DeclineProject(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error) {
	return s.moveFn(ctx, "decline", caller, id)
}
func (s escrowStub) ApproveAndDistribute(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error) {
	return s.moveFn(ctx, "approve", caller, id)
}
func (s escrowStub) GetProject(ctx context.Context, id escrow.ProjectID) (*escrow.Project, error) {
	return s.getFn(ctx, id)
}

type governanceStub struct {
	admin, wallet escrow.Principal
	err           error
	calls         []string
}

func (g *governanceStub) TransferAdmin(_ context.Context, caller, next escrow.Principal) error {
	g.calls = append(g.calls, fmt.Sprintf("transfer-admin %s %s", caller, next))
	return g.err
}
func (g *governanceStub) UpdatePlatformWallet(_ context.Context, caller, wallet escrow.Principal) error {
	g.calls = append(g.calls, fmt.Sprintf("update-wallet %s %s", caller, wallet))
	return g.err
}
func (g *governanceStub) SuperAdmin(context.Context) (escrow.Principal, error) {
	return g.admin, g.err
}
func (g *governanceStub) PlatformWallet(context.Context) (escrow.Principal, error) {
	return g.wallet, g.err
}

type activityStub struct {
	listFn func(context.Context, activity.ListOptions) ([]activity.Entry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	return a.listFn(ctx, opts)
}

type ledgerStub map[escrow.Principal]uint64

func (l ledgerStub) Balance(_ context.Context, p escrow.Principal) (uint64, error) {
	return l[p], nil
}

const (
	client = escrow.Principal("ST1CLIENT")
	talent = escrow.Principal("ST1TALENT")
	scout  = escrow.Principal("ST1SCOUT")
)

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleProject(status escrow.Status) *escrow.Project {
	return &escrow.Project{
		ID:                 7,
		Client:             client,
		Talent:             talent,
		Scout:              scout,
		Amount:             10_000_000,
		ScoutFeePercent:    10,
		PlatformFeePercent: 7,
		Status:             status,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func newTestHandler(es escrowStub, gov *governanceStub) *Handler {
	if gov == nil {
		gov = &governanceStub{admin: "ST1ADMIN", wallet: "ST1PLATFORM"}
	}
	return NewHandler(Services{
		Escrow:     es,
		Governance: gov,
		Activity: activityStub{listFn: func(context.Context, activity.ListOptions) ([]activity.Entry, error) {
			return nil, nil
		}},
		Ledger: ledgerStub{client: 5_000_000},
	})
}

func rpcError(t *testing.T, err error) *transport.Error {
	t.Helper()
	var rpcErr *transport.Error
	require.ErrorAs(t, err, &rpcErr)
	return rpcErr
}

func TestHandleCreateProject(t *testing.T) {
	var got escrow.CreateRequest
	var gotCaller escrow.Principal
	h := newTestHandler(escrowStub{
		createFn: func(_ context.Context, caller escrow.Principal, req escrow.CreateRequest) (*escrow.Receipt, error) {
			gotCaller, got = caller, req
			return &escrow.Receipt{Project: *sampleProject(escrow.StatusCreated), Events: []escrow.TransferEvent{}}, nil
		},
	}, nil)

	params := json.RawMessage(`{"talent":"ST1TALENT","scout":"ST1SCOUT","amount":10000000,"scout_fee_percent":10,"platform_fee_percent":7}`)
	res, err := h.Handle(context.Background(), client, "create-project", params)
	require.NoError(t, err)
	require.Equal(t, client, gotCaller)
	require.Equal(t, escrow.CreateRequest{
		Talent: talent, Scout: scout, Amount: 10_000_000, ScoutFeePercent: 10, PlatformFeePercent: 7,
	}, got)

	out, ok := res.(CreateProjectResult)
	require.True(t, ok)
	assert.Equal(t, uint64(7), out.ProjectID)
	assert.Equal(t, "10.000000", out.Project.AmountSTX)
	assert.Equal(t, "Created", out.Project.StatusName)
	assert.Equal(t, "2026-03-01T12:00:00Z", out.Project.CreatedAt)
}

func TestHandleTransitionMethods(t *testing.T) {
	var seen []string
	h := newTestHandler(escrowStub{
		moveFn: func(_ context.Context, op string, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error) {
			seen = append(seen, fmt.Sprintf("%s %s %d", op, caller, id))
			return &escrow.Receipt{
				Project: *sampleProject(escrow.StatusCompleted),
				Events: []escrow.TransferEvent{
					{ID: "a", ProjectID: id, Sender: "custody", Recipient: talent, Amount: 8_300_000},
				},
			}, nil
		},
	}, nil)

	ctx := context.Background()
	for _, method := range []string{"fund-escrow", "accept_project", "decline-project", "approve_and_distribute"} {
		res, err := h.Handle(ctx, client, method, json.RawMessage(`{"id":7}`))
		require.NoError(t, err, method)
		out := res.(TransitionResult)
		require.True(t, out.OK)
		require.Len(t, out.Transfers, 1)
		assert.Equal(t, "8.300000", out.Transfers[0].AmountSTX)
	}
	require.Equal(t, []string{
		"fund ST1CLIENT 7", "accept ST1CLIENT 7", "decline ST1CLIENT 7", "approve ST1CLIENT 7",
	}, seen)
}

func TestHandleMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"not authorized", fmt.Errorf("%w: caller", escrow.ErrNotAuthorized), 101, "NotAuthorized"},
		{"not found", escrow.ErrProjectNotFound, 102, "ProjectNotFound"},
		{"wrong status", fmt.Errorf("%w: Completed", escrow.ErrWrongStatus), 103, "WrongStatus"},
		{"transfer failed", fmt.Errorf("%w: a -> b: %w", escrow.ErrTransferFailed, errors.New("short")), 104, "TransferFailed"},
		{"corrupt", fmt.Errorf("%w: %w", escrow.ErrCorruptRecord, escrow.ErrFeeCalculation), transport.ErrInternal, "internal error"},
		{"storage", errors.New("disk full"), transport.ErrInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(escrowStub{
				moveFn: func(context.Context, string, escrow.Principal, escrow.ProjectID) (*escrow.Receipt, error) {
					return nil, tt.err
				},
			}, nil)
			_, err := h.Handle(context.Background(), client, "fund-escrow", json.RawMessage(`{"id":1}`))
			rpcErr := rpcError(t, err)
			assert.Equal(t, tt.code, rpcErr.Code)
			assert.Equal(t, tt.msg, rpcErr.Message)
		})
	}
}

func TestHandleRejectsUnknownMethodAndBadParams(t *testing.T) {
	h := newTestHandler(escrowStub{}, nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, client, "withdraw-everything", nil)
	require.Equal(t, transport.ErrMethodNotFound, rpcError(t, err).Code)

	_, err = h.Handle(ctx, client, "fund-escrow", json.RawMessage(`{"id":"seven"}`))
	require.Equal(t, transport.ErrInvalidParams, rpcError(t, err).Code)

	_, err = h.Handle(ctx, client, "get-recent-activity", json.RawMessage(`{"type":"bogus"}`))
	require.Equal(t, transport.ErrInvalidParams, rpcError(t, err).Code)

	_, err = h.Handle(ctx, client, "get-balance", json.RawMessage(`{"principal":""}`))
	require.Equal(t, 106, rpcError(t, err).Code)
}

func TestHandleGetProjectData(t *testing.T) {
	h := newTestHandler(escrowStub{
		getFn: func(_ context.Context, id escrow.ProjectID) (*escrow.Project, error) {
			if id == 7 {
				return sampleProject(escrow.StatusFunded), nil
			}
			return nil, escrow.ErrProjectNotFound
		},
	}, nil)
	ctx := context.Background()

	res, err := h.Handle(ctx, client, "get-project-data", json.RawMessage(`{"id":7}`))
	require.NoError(t, err)
	out := res.(GetProjectResult)
	require.True(t, out.Found)
	require.Equal(t, uint8(1), out.Project.Status)

	res, err = h.Handle(ctx, client, "get-project-data", json.RawMessage(`{"id":8}`))
	require.NoError(t, err)
	require.Equal(t, GetProjectResult{Found: false}, res)
}

func TestHandleGovernance(t *testing.T) {
	gov := &governanceStub{admin: "ST1ADMIN", wallet: "ST1PLATFORM"}
	h := newTestHandler(escrowStub{}, gov)
	ctx := context.Background()

	res, err := h.Handle(ctx, "ST1ADMIN", "transfer-admin", json.RawMessage(`{"new_admin":"ST1NEXT"}`))
	require.NoError(t, err)
	require.Equal(t, OKResult{OK: true}, res)

	res, err = h.Handle(ctx, "ST1ADMIN", "update-platform-wallet", json.RawMessage(`{"new_payee":"ST1TREASURY"}`))
	require.NoError(t, err)
	require.Equal(t, OKResult{OK: true}, res)
	require.Equal(t, []string{"transfer-admin ST1ADMIN ST1NEXT", "update-wallet ST1ADMIN ST1TREASURY"}, gov.calls)

	res, err = h.Handle(ctx, client, "get-platform-wallet", nil)
	require.NoError(t, err)
	require.Equal(t, PrincipalResult{Principal: "ST1PLATFORM"}, res)

	gov.err = escrow.ErrNotAuthorized
	_, err = h.Handle(ctx, client, "update-platform-wallet", json.RawMessage(`{"new_payee":"ST1EVIL"}`))
	require.Equal(t, 101, rpcError(t, err).Code)
}

func TestHandleGetRecentActivityFilters(t *testing.T) {
	var got activity.ListOptions
	projectID := uint64(7)
	h := NewHandler(Services{
		Activity: activityStub{listFn: func(_ context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
			got = opts
			return []activity.Entry{{
				ID: 3, ProjectID: &projectID, Actor: "ST1CLIENT", Type: activity.TypeEscrowFunded,
				Summary: "funded", Details: `{"to":"Pending_Acceptance"}`, CreatedAt: created,
			}}, nil
		}},
	})

	res, err := h.Handle(context.Background(), client, "get-recent-activity",
		json.RawMessage(`{"project_id":7,"type":"escrow_funded","limit":5}`))
	require.NoError(t, err)
	require.NotNil(t, got.ProjectID)
	require.Equal(t, uint64(7), *got.ProjectID)
	require.Equal(t, activity.TypeEscrowFunded, *got.Type)
	require.Equal(t, 5, got.Limit)

	out := res.(ActivityResult)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "escrow_funded", out.Entries[0].Type)
	assert.JSONEq(t, `{"to":"Pending_Acceptance"}`, out.Entries[0].Details)
}

func TestHandleGetBalance(t *testing.T) {
	h := newTestHandler(escrowStub{}, nil)
	res, err := h.Handle(context.Background(), talent, "get-balance", json.RawMessage(`{"principal":"ST1CLIENT"}`))
	require.NoError(t, err)
	require.Equal(t, BalanceResult{Principal: "ST1CLIENT", Amount: 5_000_000, AmountSTX: "5.000000"}, res)
}

func TestFormatSTX(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0.000000"},
		{1, "0.000001"},
		{10_000_000, "10.000000"},
		{8_300_001, "8.300001"},
		{math.MaxUint64, "18446744073709.551615"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSTX(tt.in), "amount %d", tt.in)
	}
}
