package mcp

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
)

// microDigits is the number of fractional digits between the ledger unit
// and its display unit.
const microDigits = 6

type CreateProjectParams struct {
	Talent             string `json:"talent" jsonschema:"principal who performs the work"`
	Scout              string `json:"scout" jsonschema:"principal who referred the talent"`
	Amount             uint64 `json:"amount" jsonschema:"escrow amount in micro-units"`
	ScoutFeePercent    uint64 `json:"scout_fee_percent" jsonschema:"scout fee percent, 0 to 100"`
	PlatformFeePercent uint64 `json:"platform_fee_percent" jsonschema:"platform fee percent, 0 to 100"`
}

type ProjectIDParams struct {
	ID uint64 `json:"id" jsonschema:"project id"`
}

type TransferAdminParams struct {
	NewAdmin string `json:"new_admin" jsonschema:"principal that becomes super-admin"`
}

type UpdatePlatformWalletParams struct {
	NewPayee string `json:"new_payee" jsonschema:"principal that receives platform fees"`
}

type GetRecentActivityParams struct {
	ProjectID *uint64 `json:"project_id,omitempty" jsonschema:"only entries for this project"`
	Type      string  `json:"type,omitempty" jsonschema:"only entries of this type"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of entries"`
	Offset    int     `json:"offset,omitempty"`
}

type GetBalanceParams struct {
	Principal string `json:"principal" jsonschema:"account to inspect"`
}

type EmptyParams struct{}

type ProjectResponse struct {
	ID                 uint64 `json:"id"`
	Client             string `json:"client"`
	Talent             string `json:"talent"`
	Scout              string `json:"scout"`
	Amount             uint64 `json:"amount"`
	AmountSTX          string `json:"amount_stx"`
	ScoutFeePercent    uint64 `json:"scout_fee_percent"`
	PlatformFeePercent uint64 `json:"platform_fee_percent"`
	Status             uint8  `json:"status"`
	StatusName         string `json:"status_name"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

type TransferResponse struct {
	ID        string `json:"id"`
	ProjectID uint64 `json:"project_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	AmountSTX string `json:"amount_stx"`
	CreatedAt string `json:"created_at"`
}

type CreateProjectResult struct {
	ProjectID uint64          `json:"project_id"`
	Project   ProjectResponse `json:"project"`
}

type TransitionResult struct {
	OK        bool               `json:"ok"`
	Project   ProjectResponse    `json:"project"`
	Transfers []TransferResponse `json:"transfers"`
}

type GetProjectResult struct {
	Found   bool             `json:"found"`
	Project *ProjectResponse `json:"project,omitempty"`
}

type OKResult struct {
	OK bool `json:"ok"`
}

type PrincipalResult struct {
	Principal string `json:"principal"`
}

type ActivityEntryResponse struct {
	ID        int64   `json:"id"`
	ProjectID *uint64 `json:"project_id,omitempty"`
	Actor     string  `json:"actor"`
	Type      string  `json:"type"`
	Summary   string  `json:"summary"`
	Details   string  `json:"details,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type ActivityResult struct {
	Entries []ActivityEntryResponse `json:"entries"`
}

type BalanceResult struct {
	Principal string `json:"principal"`
	Amount    uint64 `json:"amount"`
	AmountSTX string `json:"amount_stx"`
}

// FormatSTX renders a micro-unit amount with six fractional digits.
func FormatSTX(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -microDigits).StringFixed(microDigits)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func projectResponse(pr *escrow.Project) ProjectResponse {
	return ProjectResponse{
		ID:                 uint64(pr.ID),
		Client:             pr.Client.String(),
		Talent:             pr.Talent.String(),
		Scout:              pr.Scout.String(),
		Amount:             pr.Amount,
		AmountSTX:          FormatSTX(pr.Amount),
		ScoutFeePercent:    pr.ScoutFeePercent,
		PlatformFeePercent: pr.PlatformFeePercent,
		Status:             uint8(pr.Status),
		StatusName:         pr.Status.String(),
		CreatedAt:          timestamp(pr.CreatedAt),
		UpdatedAt:          timestamp(pr.UpdatedAt),
	}
}

func transferResponses(events []escrow.TransferEvent) []TransferResponse {
	resp := make([]TransferResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, TransferResponse{
			ID:        ev.ID,
			ProjectID: uint64(ev.ProjectID),
			Sender:    ev.Sender.String(),
			Recipient: ev.Recipient.String(),
			Amount:    ev.Amount,
			AmountSTX: FormatSTX(ev.Amount),
			CreatedAt: timestamp(ev.CreatedAt),
		})
	}
	return resp
}

func activityResponses(entries []activity.Entry) []ActivityEntryResponse {
	resp := make([]ActivityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, ActivityEntryResponse{
			ID:        entry.ID,
			ProjectID: entry.ProjectID,
			Actor:     entry.Actor,
			Type:      string(entry.Type),
			Summary:   entry.Summary,
			Details:   entry.Details,
			CreatedAt: timestamp(entry.CreatedAt),
		})
	}
	return resp
}
