package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
)

// EscrowService defines the project lifecycle operations.
type EscrowService interface {
	CreateProject(ctx context.Context, caller escrow.Principal, req escrow.CreateRequest) (*escrow.Receipt, error)
	FundEscrow(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error)
	AcceptProject(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error)
	DeclineProject(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error)
	ApproveAndDistribute(ctx context.Context, caller escrow.Principal, id escrow.ProjectID) (*escrow.Receipt, error)
	GetProject(ctx context.Context, id escrow.ProjectID) (*escrow.Project, error)
}

// GovernanceService defines the admin operations.
type GovernanceService interface {
	TransferAdmin(ctx context.Context, caller, next escrow.Principal) error
	UpdatePlatformWallet(ctx context.Context, caller, wallet escrow.Principal) error
	SuperAdmin(ctx context.Context) (escrow.Principal, error)
	PlatformWallet(ctx context.Context) (escrow.Principal, error)
}

// ActivityService defines activity reads.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// LedgerService defines balance reads.
type LedgerService interface {
	Balance(ctx context.Context, p escrow.Principal) (uint64, error)
}

// Services contains all domain services the surfaces need.
type Services struct {
	Escrow     EscrowService
	Governance GovernanceService
	Activity   ActivityService
	Ledger     LedgerService
}

// Handler dispatches operations to the domain services. Methods return
// errors already mapped to wire errors.
type Handler struct {
	svc Services
}

// NewHandler creates a new handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Handle dispatches a JSON-RPC method. Method names use the public
// operation form ("fund-escrow"); the tool form ("fund_escrow") is also
// accepted.
func (h *Handler) Handle(ctx context.Context, caller escrow.Principal, method string, params json.RawMessage) (any, error) {
	switch strings.ReplaceAll(method, "_", "-") {
	case "create-project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.CreateProject(ctx, caller, req)
	case "fund-escrow":
		return withID(params, func(id uint64) (TransitionResult, error) { return h.FundEscrow(ctx, caller, id) })
	case "accept-project":
		return withID(params, func(id uint64) (TransitionResult, error) { return h.AcceptProject(ctx, caller, id) })
	case "decline-project":
		return withID(params, func(id uint64) (TransitionResult, error) { return h.DeclineProject(ctx, caller, id) })
	case "approve-and-distribute":
		return withID(params, func(id uint64) (TransitionResult, error) { return h.ApproveAndDistribute(ctx, caller, id) })
	case "get-project-data":
		return withID(params, func(id uint64) (GetProjectResult, error) { return h.GetProjectData(ctx, id) })
	case "transfer-admin":
		var req TransferAdminParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.TransferAdmin(ctx, caller, req)
	case "update-platform-wallet":
		var req UpdatePlatformWalletParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.UpdatePlatformWallet(ctx, caller, req)
	case "get-super-admin":
		return h.GetSuperAdmin(ctx)
	case "get-platform-wallet":
		return h.GetPlatformWallet(ctx)
	case "get-recent-activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.GetRecentActivity(ctx, req)
	case "get-balance":
		var req GetBalanceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.GetBalance(ctx, req)
	default:
		return nil, MapError(fmt.Errorf("%w: %s", ErrUnknownMethod, method))
	}
}

func (h *Handler) CreateProject(ctx context.Context, caller escrow.Principal, req CreateProjectParams) (CreateProjectResult, error) {
	rcpt, err := h.svc.Escrow.CreateProject(ctx, caller, escrow.CreateRequest{
		Talent:             escrow.Principal(req.Talent),
		Scout:              escrow.Principal(req.Scout),
		Amount:             req.Amount,
		ScoutFeePercent:    req.ScoutFeePercent,
		PlatformFeePercent: req.PlatformFeePercent,
	})
	if err != nil {
		return CreateProjectResult{}, MapError(err)
	}
	return CreateProjectResult{
		ProjectID: uint64(rcpt.Project.ID),
		Project:   projectResponse(&rcpt.Project),
	}, nil
}

func (h *Handler) FundEscrow(ctx context.Context, caller escrow.Principal, id uint64) (TransitionResult, error) {
	return transition(h.svc.Escrow.FundEscrow(ctx, caller, escrow.ProjectID(id)))
}

func (h *Handler) AcceptProject(ctx context.Context, caller escrow.Principal, id uint64) (TransitionResult, error) {
	return transition(h.svc.Escrow.AcceptProject(ctx, caller, escrow.ProjectID(id)))
}

func (h *Handler) DeclineProject(ctx context.Context, caller escrow.Principal, id uint64) (TransitionResult, error) {
	return transition(h.svc.Escrow.DeclineProject(ctx, caller, escrow.ProjectID(id)))
}

func (h *Handler) ApproveAndDistribute(ctx context.Context, caller escrow.Principal, id uint64) (TransitionResult, error) {
	return transition(h.svc.Escrow.ApproveAndDistribute(ctx, caller, escrow.ProjectID(id)))
}

// GetProjectData reports an unknown id as not found rather than as an error.
func (h *Handler) GetProjectData(ctx context.Context, id uint64) (GetProjectResult, error) {
	pr, err := h.svc.Escrow.GetProject(ctx, escrow.ProjectID(id))
	if errors.Is(err, escrow.ErrProjectNotFound) {
		return GetProjectResult{Found: false}, nil
	}
	if err != nil {
		return GetProjectResult{}, MapError(err)
	}
	resp := projectResponse(pr)
	return GetProjectResult{Found: true, Project: &resp}, nil
}

func (h *Handler) TransferAdmin(ctx context.Context, caller escrow.Principal, req TransferAdminParams) (OKResult, error) {
	if err := h.svc.Governance.TransferAdmin(ctx, caller, escrow.Principal(req.NewAdmin)); err != nil {
		return OKResult{}, MapError(err)
	}
	return OKResult{OK: true}, nil
}

func (h *Handler) UpdatePlatformWallet(ctx context.Context, caller escrow.Principal, req UpdatePlatformWalletParams) (OKResult, error) {
	if err := h.svc.Governance.UpdatePlatformWallet(ctx, caller, escrow.Principal(req.NewPayee)); err != nil {
		return OKResult{}, MapError(err)
	}
	return OKResult{OK: true}, nil
}

func (h *Handler) GetSuperAdmin(ctx context.Context) (PrincipalResult, error) {
	p, err := h.svc.Governance.SuperAdmin(ctx)
	if err != nil {
		return PrincipalResult{}, MapError(err)
	}
	return PrincipalResult{Principal: p.String()}, nil
}

func (h *Handler) GetPlatformWallet(ctx context.Context) (PrincipalResult, error) {
	p, err := h.svc.Governance.PlatformWallet(ctx)
	if err != nil {
		return PrincipalResult{}, MapError(err)
	}
	return PrincipalResult{Principal: p.String()}, nil
}

func (h *Handler) GetRecentActivity(ctx context.Context, req GetRecentActivityParams) (ActivityResult, error) {
	opts := activity.ListOptions{
		ProjectID: req.ProjectID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if req.Type != "" {
		typ := activity.Type(req.Type)
		if !typ.Valid() {
			return ActivityResult{}, MapError(fmt.Errorf("%w: unknown activity type %q", activity.ErrInvalidInput, req.Type))
		}
		opts.Type = &typ
	}
	if req.Limit < 0 || req.Offset < 0 {
		return ActivityResult{}, MapError(fmt.Errorf("%w: negative limit or offset", activity.ErrInvalidInput))
	}
	entries, err := h.svc.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return ActivityResult{}, MapError(err)
	}
	return ActivityResult{Entries: activityResponses(entries)}, nil
}

func (h *Handler) GetBalance(ctx context.Context, req GetBalanceParams) (BalanceResult, error) {
	p := escrow.Principal(req.Principal)
	if !p.Valid() {
		return BalanceResult{}, MapError(fmt.Errorf("%w: %q", escrow.ErrInvalidPrincipal, req.Principal))
	}
	amount, err := h.svc.Ledger.Balance(ctx, p)
	if err != nil {
		return BalanceResult{}, MapError(err)
	}
	return BalanceResult{Principal: p.String(), Amount: amount, AmountSTX: FormatSTX(amount)}, nil
}

func transition(rcpt *escrow.Receipt, err error) (TransitionResult, error) {
	if err != nil {
		return TransitionResult{}, MapError(err)
	}
	return TransitionResult{
		OK:        true,
		Project:   projectResponse(&rcpt.Project),
		Transfers: transferResponses(rcpt.Events),
	}, nil
}

func withID[T any](params json.RawMessage, fn func(id uint64) (T, error)) (any, error) {
	var req ProjectIDParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	res, err := fn(req.ID)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return invalidParams(err)
	}
	return nil
}
