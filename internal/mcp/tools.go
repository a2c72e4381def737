package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/transport"
)

func registerTools(server *sdkmcp.Server, h *Handler) {
	// Lifecycle
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a project with the caller as client. Fees are whole percents and may not exceed 100 together.",
	}, callerTool(h.CreateProject))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "fund_escrow",
		Description: "Client moves the project amount into escrow custody (Created -> Pending_Acceptance).",
	}, transitionTool(h.FundEscrow))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "accept_project",
		Description: "Talent accepts a funded project (Pending_Acceptance -> Funded).",
	}, transitionTool(h.AcceptProject))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "decline_project",
		Description: "Talent declines a funded project; the client is refunded in full (Pending_Acceptance -> Declined).",
	}, transitionTool(h.DeclineProject))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "approve_and_distribute",
		Description: "Client approves the work; escrow is paid to talent, scout and the platform wallet (Funded -> Completed).",
	}, transitionTool(h.ApproveAndDistribute))

	// Governance
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "transfer_admin",
		Description: "Super-admin hands the role to another principal.",
	}, callerTool(h.TransferAdmin))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_platform_wallet",
		Description: "Super-admin changes the principal that receives platform fees.",
	}, callerTool(h.UpdatePlatformWallet))

	// Reads
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project_data",
		Description: "Get a project record; found is false for unknown ids.",
	}, readTool(func(ctx context.Context, in ProjectIDParams) (GetProjectResult, error) {
		return h.GetProjectData(ctx, in.ID)
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_super_admin",
		Description: "Get the current super-admin principal.",
	}, readTool(func(ctx context.Context, _ EmptyParams) (PrincipalResult, error) {
		return h.GetSuperAdmin(ctx)
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_platform_wallet",
		Description: "Get the principal that currently receives platform fees.",
	}, readTool(func(ctx context.Context, _ EmptyParams) (PrincipalResult, error) {
		return h.GetPlatformWallet(ctx)
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List audit entries newest first, optionally for one project or type.",
	}, readTool(h.GetRecentActivity))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_balance",
		Description: "Get the ledger balance of a principal.",
	}, readTool(h.GetBalance))
}

func callerTool[In, Out any](fn func(context.Context, escrow.Principal, In) (Out, error)) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		var zero Out
		caller, ok := callerFromContext(ctx)
		if !ok {
			return nil, zero, transport.ErrUnauthorized
		}
		out, err := fn(ctx, caller, in)
		if err != nil {
			return nil, zero, err
		}
		return nil, out, nil
	}
}

func transitionTool(fn func(context.Context, escrow.Principal, uint64) (TransitionResult, error)) sdkmcp.ToolHandlerFor[ProjectIDParams, TransitionResult] {
	return callerTool(func(ctx context.Context, caller escrow.Principal, in ProjectIDParams) (TransitionResult, error) {
		return fn(ctx, caller, in.ID)
	})
}

func readTool[In, Out any](fn func(context.Context, In) (Out, error)) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		out, err := fn(ctx, in)
		if err != nil {
			var zero Out
			return nil, zero, err
		}
		return nil, out, nil
	}
}
