package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `referydo holds a client's payment in escrow for a project delivered by a talent and referred by a scout.

Lifecycle (each step is one tool call by the named role):
1) create_project (client): terms are fixed here. Status Created.
2) fund_escrow (client): the amount moves into custody. Status Pending_Acceptance.
3) accept_project (talent) -> Funded, or decline_project (talent) -> Declined with a full refund.
4) approve_and_distribute (client): custody pays talent, scout and the platform wallet. Status Completed.

Completed and Declined are final. Read tools: get_project_data, get_recent_activity, get_balance,
get_super_admin, get_platform_wallet. Docs: referydo://docs/lifecycle, referydo://docs/errors.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "referydo://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Project lifecycle",
		Description: "States, the role allowed to move each edge, and how the escrow is split.",
		Content: `# Project lifecycle

| Operation | Caller | From | To | Value movement |
|---|---|---|---|---|
| ` + "`fund_escrow`" + ` | client | Created (0) | Pending_Acceptance (4) | amount: client -> custody |
| ` + "`accept_project`" + ` | talent | Pending_Acceptance (4) | Funded (1) | none |
| ` + "`decline_project`" + ` | talent | Pending_Acceptance (4) | Declined (5) | amount: custody -> client |
| ` + "`approve_and_distribute`" + ` | client | Funded (1) | Completed (2) | custody -> talent, scout, platform |

Status 3 is reserved and never produced.

## Distribution

    scout_fee    = floor(amount * scout_fee_percent / 100)
    platform_fee = floor(amount * platform_fee_percent / 100)
    talent       = amount - scout_fee - platform_fee

The three shares always sum to the escrowed amount; rounding remainders go to
the talent. The platform share goes to the wallet configured at the time of
distribution, not at creation. A zero share still produces a transfer.

Amounts are micro-units; ` + "`amount_stx`" + ` shows the same value with six decimals.
`,
	},
	{
		URI:         "referydo://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Numeric error codes and the order checks are applied in.",
		Content: `# Error codes

| Code | Name | Meaning |
|---|---|---|
| 101 | NotAuthorized | caller does not hold the required role |
| 102 | ProjectNotFound | no project with that id |
| 103 | WrongStatus | project is not in the required state |
| 104 | TransferFailed | the ledger refused a transfer; nothing changed |
| 105 | FeeCalculationError | zero amount or fees above 100 percent |
| 106 | InvalidPrincipal | empty or malformed identity |

Checks run in order: project exists, caller role, current status. A failed
operation has no effect.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
