package escrow

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Principal identifies an account on the ledger
type Principal string

// Valid reports whether p is non-empty and free of whitespace.
func (p Principal) Valid() bool {
	if p == "" {
		return false
	}
	return !strings.ContainsFunc(string(p), unicode.IsSpace)
}

func (p Principal) String() string {
	return string(p)
}

// ProjectID is the sequential identifier of a project record. The first
// project gets 1.
type ProjectID uint64

// Status is the lifecycle state of a project. The numeric values are part of
// the external contract.
type Status uint8

const (
	StatusCreated           Status = 0
	StatusFunded            Status = 1
	StatusCompleted         Status = 2
	statusReserved          Status = 3
	StatusPendingAcceptance Status = 4
	StatusDeclined          Status = 5
)

var statusNames = map[Status]string{
	StatusCreated:           "Created",
	StatusFunded:            "Funded",
	StatusCompleted:         "Completed",
	StatusPendingAcceptance: "Pending_Acceptance",
	StatusDeclined:          "Declined",
}

// Valid reports whether s is a status some transition can produce.
// The reserved value 3 is not.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDeclined
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	if s == statusReserved {
		return "Reserved"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus converts a stored status value, rejecting the reserved and
// unknown values.
func ParseStatus(v uint8) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: status %d", ErrCorruptRecord, v)
	}
	return s, nil
}

// Role is a capacity in which a principal may act.
type Role string

const (
	RoleClient     Role = "client"
	RoleTalent     Role = "talent"
	RoleScout      Role = "scout"
	// RoleSuperAdmin is held by the governance super-admin, never on a
	// project record.
	RoleSuperAdmin Role = "super-admin"
)

// Project is an escrow engagement between a client, a talent and a scout.
// Everything but Status is fixed at creation.
type Project struct {
	ID                 ProjectID `json:"id"`
	Client             Principal `json:"client"`
	Talent             Principal `json:"talent"`
	Scout              Principal `json:"scout"`
	Amount             uint64    `json:"amount"`
	ScoutFeePercent    uint64    `json:"scout_fee_percent"`
	PlatformFeePercent uint64    `json:"platform_fee_percent"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasRole reports whether p holds role on this project.
func (pr *Project) HasRole(p Principal, role Role) bool {
	switch role {
	case RoleClient:
		return pr.Client == p
	case RoleTalent:
		return pr.Talent == p
	case RoleScout:
		return pr.Scout == p
	default:
		return false
	}
}

// TransferEvent records one value movement on the ledger.
type TransferEvent struct {
	ID        string    `json:"id"`
	ProjectID ProjectID `json:"project_id"`
	Sender    Principal `json:"sender"`
	Recipient Principal `json:"recipient"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Receipt is the outcome of a successful operation.
type Receipt struct {
	Project Project         `json:"project"`
	Events  []TransferEvent `json:"events"`
}
