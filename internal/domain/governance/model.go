package governance

import (
	"time"

	"github.com/rpggio/referydo/internal/domain/escrow"
)

// DefaultPlatformWallet is the platform fee recipient used when none is
// configured.
const DefaultPlatformWallet escrow.Principal = "SP3EK6QA5QPBNMMR98QB2HB1J66TF6QTF0HXDJK5X"

// State is the governance singleton. Custody is fixed at first bootstrap
// and never changes afterwards.
type State struct {
	SuperAdmin     escrow.Principal `json:"super_admin"`
	PlatformWallet escrow.Principal `json:"platform_wallet"`
	Custody        escrow.Principal `json:"custody"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Seed is the configuration Bootstrap initializes a fresh store from.
type Seed struct {
	Deployer       escrow.Principal
	PlatformWallet escrow.Principal
	Custody        escrow.Principal
	// CustodyPinned reports that Custody was set explicitly and must match
	// any stored value.
	CustodyPinned bool
}
