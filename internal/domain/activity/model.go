package activity

import "time"

// Type identifies the kind of audit event.
type Type string

const (
	TypeProjectCreated        Type = "project_created"
	TypeEscrowFunded          Type = "escrow_funded"
	TypeProjectAccepted       Type = "project_accepted"
	TypeProjectDeclined       Type = "project_declined"
	TypeFundsDistributed      Type = "funds_distributed"
	TypeAdminTransferred      Type = "admin_transferred"
	TypePlatformWalletUpdated Type = "platform_wallet_updated"
)

// Valid reports whether t is a known activity type.
func (t Type) Valid() bool {
	switch t {
	case TypeProjectCreated, TypeEscrowFunded, TypeProjectAccepted, TypeProjectDeclined,
		TypeFundsDistributed, TypeAdminTransferred, TypePlatformWalletUpdated:
		return true
	}
	return false
}

// Entry represents an event in the activity log. Governance events carry
// no project.
type Entry struct {
	ID        int64     `json:"id"`
	ProjectID *uint64   `json:"project_id,omitempty"`
	Actor     string    `json:"actor"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}
