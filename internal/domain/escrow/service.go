package escrow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/repository"
)

// Dependencies are the collaborators of an Engine.
type Dependencies struct {
	Projects Repository
	Ledger   Ledger
	Wallets  WalletSource
	Activity ActivityLogger
	Tx       TxRunner
	// Custody is the principal that holds escrowed value between funding
	// and release.
	Custody Principal
	Metrics *Metrics
}

// Engine runs the project lifecycle. Operations are serialized and each one
// commits or rolls back as a unit.
type Engine struct {
	mu       sync.Mutex
	projects Repository
	ledger   Ledger
	wallets  WalletSource
	activity ActivityLogger
	tx       TxRunner
	custody  Principal
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates a new escrow engine.
func NewEngine(deps Dependencies, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		projects: deps.Projects,
		ledger:   deps.Ledger,
		wallets:  deps.Wallets,
		activity: deps.Activity,
		tx:       deps.Tx,
		custody:  deps.Custody,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Custody returns the principal holding escrowed value.
func (e *Engine) Custody() Principal {
	return e.custody
}

// CreateRequest defines project creation inputs. The caller becomes the
// client.
type CreateRequest struct {
	Talent             Principal
	Scout              Principal
	Amount             uint64
	ScoutFeePercent    uint64
	PlatformFeePercent uint64
}

// CreateProject validates the fee terms and stores a new project in
// status Created.
func (e *Engine) CreateProject(ctx context.Context, caller Principal, req CreateRequest) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rcpt, err := e.createProject(ctx, caller, req)
	e.finish(ctx, "create-project", caller, rcpt, err)
	return rcpt, err
}

func (e *Engine) createProject(ctx context.Context, caller Principal, req CreateRequest) (*Receipt, error) {
	for _, p := range []Principal{caller, req.Talent, req.Scout} {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPrincipal, p)
		}
		if p == e.custody {
			return nil, fmt.Errorf("%w: %s is the custody account", ErrInvalidPrincipal, p)
		}
	}
	if err := ValidateFees(req.Amount, req.ScoutFeePercent, req.PlatformFeePercent); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	pr := &Project{
		Client:             caller,
		Talent:             req.Talent,
		Scout:              req.Scout,
		Amount:             req.Amount,
		ScoutFeePercent:    req.ScoutFeePercent,
		PlatformFeePercent: req.PlatformFeePercent,
		Status:             StatusCreated,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		id, err := e.projects.Create(ctx, pr)
		if err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		pr.ID = id
		return e.log(ctx, pr, caller, activity.TypeProjectCreated,
			fmt.Sprintf("project %d created for %d", id, pr.Amount),
			map[string]any{
				"talent":               pr.Talent,
				"scout":                pr.Scout,
				"amount":               pr.Amount,
				"scout_fee_percent":    pr.ScoutFeePercent,
				"platform_fee_percent": pr.PlatformFeePercent,
			})
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{Project: *pr, Events: []TransferEvent{}}, nil
}

// FundEscrow moves the project amount from the client into custody.
func (e *Engine) FundEscrow(ctx context.Context, caller Principal, id ProjectID) (*Receipt, error) {
	return e.apply(ctx, caller, id, ActionFund, func(ctx context.Context, pr *Project) ([]TransferEvent, error) {
		ev, err := e.transfer(ctx, pr.ID, pr.Client, e.custody, pr.Amount)
		if err != nil {
			return nil, err
		}
		return []TransferEvent{ev}, nil
	})
}

// AcceptProject confirms the talent takes the engagement. No value moves.
func (e *Engine) AcceptProject(ctx context.Context, caller Principal, id ProjectID) (*Receipt, error) {
	return e.apply(ctx, caller, id, ActionAccept, func(context.Context, *Project) ([]TransferEvent, error) {
		return []TransferEvent{}, nil
	})
}

// DeclineProject refunds the full amount from custody to the client.
func (e *Engine) DeclineProject(ctx context.Context, caller Principal, id ProjectID) (*Receipt, error) {
	return e.apply(ctx, caller, id, ActionDecline, func(ctx context.Context, pr *Project) ([]TransferEvent, error) {
		ev, err := e.transfer(ctx, pr.ID, e.custody, pr.Client, pr.Amount)
		if err != nil {
			return nil, err
		}
		return []TransferEvent{ev}, nil
	})
}

// ApproveAndDistribute releases the escrow to the talent, scout and the
// current platform wallet, in that order.
func (e *Engine) ApproveAndDistribute(ctx context.Context, caller Principal, id ProjectID) (*Receipt, error) {
	var payout Payout
	rcpt, err := e.apply(ctx, caller, id, ActionApprove, func(ctx context.Context, pr *Project) ([]TransferEvent, error) {
		var err error
		payout, err = CalculatePayout(pr.Amount, pr.ScoutFeePercent, pr.PlatformFeePercent)
		if err != nil {
			return nil, fmt.Errorf("%w: project %d: %w", ErrCorruptRecord, pr.ID, err)
		}
		wallet, err := e.wallets.PlatformWallet(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading platform wallet: %w", err)
		}

		legs := []struct {
			to     Principal
			amount uint64
		}{
			{pr.Talent, payout.Talent},
			{pr.Scout, payout.Scout},
			{wallet, payout.Platform},
		}
		events := make([]TransferEvent, 0, len(legs))
		for _, leg := range legs {
			ev, err := e.transfer(ctx, pr.ID, e.custody, leg.to, leg.amount)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		return events, nil
	})
	if err == nil {
		e.metrics.distribute(payout)
	}
	return rcpt, err
}

// GetProject returns the project record.
func (e *Engine) GetProject(ctx context.Context, id ProjectID) (*Project, error) {
	pr, err := e.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return pr, nil
}

type effect func(ctx context.Context, pr *Project) ([]TransferEvent, error)

// apply runs one transition: existence, then role, then status, then the
// side effects and the status write, all in one transaction.
func (e *Engine) apply(ctx context.Context, caller Principal, id ProjectID, action Action, fx effect) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var rcpt *Receipt
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		pr, err := e.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(pr, caller, action); err != nil {
			return err
		}
		next, err := Transition(pr.Status, action)
		if err != nil {
			return err
		}

		events, err := fx(ctx, pr)
		if err != nil {
			return err
		}

		prev := pr.Status
		pr.Status = next
		pr.UpdatedAt = e.now().UTC()
		if err := e.projects.SetStatus(ctx, pr.ID, next, pr.UpdatedAt); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}

		details := map[string]any{"from": prev.String(), "to": next.String()}
		if len(events) > 0 {
			details["transfers"] = events
		}
		if err := e.log(ctx, pr, caller, activityFor[action],
			fmt.Sprintf("project %d %s -> %s", pr.ID, prev, next), details); err != nil {
			return err
		}

		rcpt = &Receipt{Project: *pr, Events: events}
		return nil
	})
	if err != nil {
		rcpt = nil
	}
	e.finish(ctx, string(action), caller, rcpt, err)
	return rcpt, err
}

var activityFor = map[Action]activity.Type{
	ActionFund:    activity.TypeEscrowFunded,
	ActionAccept:  activity.TypeProjectAccepted,
	ActionDecline: activity.TypeProjectDeclined,
	ActionApprove: activity.TypeFundsDistributed,
}

func (e *Engine) transfer(ctx context.Context, id ProjectID, from, to Principal, amount uint64) (TransferEvent, error) {
	ev, err := e.ledger.Transfer(ctx, id, from, to, amount)
	if err != nil {
		return TransferEvent{}, fmt.Errorf("%w: %s -> %s: %w", ErrTransferFailed, from, to, err)
	}
	return ev, nil
}

func (e *Engine) log(ctx context.Context, pr *Project, caller Principal, typ activity.Type, summary string, details map[string]any) error {
	if e.activity == nil {
		return nil
	}
	id := uint64(pr.ID)
	err := e.activity.LogActivity(ctx, &activity.Entry{
		ProjectID: &id,
		Actor:     caller.String(),
		Type:      typ,
		Summary:   summary,
		Details:   activity.Details(details),
		CreatedAt: pr.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

func (e *Engine) finish(ctx context.Context, operation string, caller Principal, rcpt *Receipt, err error) {
	e.metrics.observe(operation, err)
	if err != nil {
		e.logger.Debug("operation rejected", "operation", operation, "caller", caller, "error", err)
		return
	}
	e.logger.Info("operation committed",
		"operation", operation,
		"project_id", rcpt.Project.ID,
		"caller", caller,
		"status", rcpt.Project.Status.String(),
		"transfers", len(rcpt.Events),
	)
	if e.metrics != nil && len(rcpt.Events) > 0 {
		if bal, err := e.ledger.Balance(ctx, e.custody); err == nil {
			e.metrics.setCustody(bal)
		}
	}
}
