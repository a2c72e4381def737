package escrow

import "fmt"

// Action is a state-changing operation on an existing project.
type Action string

const (
	ActionFund    Action = "fund-escrow"
	ActionAccept  Action = "accept-project"
	ActionDecline Action = "decline-project"
	ActionApprove Action = "approve-and-distribute"
)

type edge struct {
	role Role
	from Status
	to   Status
}

// transitions is the complete lifecycle. Anything not listed is rejected.
var transitions = map[Action]edge{
	ActionFund:    {role: RoleClient, from: StatusCreated, to: StatusPendingAcceptance},
	ActionAccept:  {role: RoleTalent, from: StatusPendingAcceptance, to: StatusFunded},
	ActionDecline: {role: RoleTalent, from: StatusPendingAcceptance, to: StatusDeclined},
	ActionApprove: {role: RoleClient, from: StatusFunded, to: StatusCompleted},
}

// Authorize checks that caller holds the role action requires on pr.
func Authorize(pr *Project, caller Principal, action Action) error {
	e, ok := transitions[action]
	if !ok {
		return fmt.Errorf("escrow: unknown action %q", action)
	}
	if !pr.HasRole(caller, e.role) {
		return fmt.Errorf("%w: %s requires %s", ErrNotAuthorized, action, e.role)
	}
	return nil
}

// Transition returns the status action moves pr into, or ErrWrongStatus if
// pr is not in the state action starts from.
func Transition(current Status, action Action) (Status, error) {
	e, ok := transitions[action]
	if !ok {
		return current, fmt.Errorf("escrow: unknown action %q", action)
	}
	if current != e.from {
		return current, fmt.Errorf("%w: %s requires %s, project is %s", ErrWrongStatus, action, e.from, current)
	}
	return e.to, nil
}
