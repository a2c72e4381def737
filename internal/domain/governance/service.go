package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/repository"
)

// Service manages the super-admin and platform wallet.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	tx       TxRunner
	activity ActivityLogger
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new governance service.
func NewService(repo Repository, tx TxRunner, activity ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, tx: tx, activity: activity, logger: logger, now: time.Now}
}

// Bootstrap initializes the singleton from seed with the deployer as
// super-admin. A state that already exists keeps its admin, wallet and
// custody; a stored custody that predates the column is filled in from seed.
func (s *Service) Bootstrap(ctx context.Context, seed Seed) (*State, error) {
	if seed.PlatformWallet == "" {
		seed.PlatformWallet = DefaultPlatformWallet
	}
	if !seed.Deployer.Valid() || !seed.PlatformWallet.Valid() || !seed.Custody.Valid() {
		return nil, escrow.ErrInvalidPrincipal
	}
	if seed.PlatformWallet == seed.Custody {
		return nil, fmt.Errorf("%w: platform wallet %s is the custody account", escrow.ErrInvalidPrincipal, seed.Custody)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var st *State
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.Get(ctx)
		switch {
		case err == nil:
			st = cur
		case errors.Is(err, repository.ErrNotFound):
			st = &State{
				SuperAdmin:     seed.Deployer,
				PlatformWallet: seed.PlatformWallet,
				Custody:        seed.Custody,
				UpdatedAt:      s.now().UTC(),
			}
			return s.repo.Put(ctx, st)
		default:
			return fmt.Errorf("reading governance: %w", err)
		}

		if st.Custody == "" {
			st.Custody = seed.Custody
			st.UpdatedAt = s.now().UTC()
			return s.repo.Put(ctx, st)
		}
		if seed.CustodyPinned && st.Custody != seed.Custody {
			return fmt.Errorf("%w: configured %s, stored %s", ErrCustodyMismatch, seed.Custody, st.Custody)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("governance ready",
		"super_admin", st.SuperAdmin,
		"platform_wallet", st.PlatformWallet,
		"custody", st.Custody,
	)
	return st, nil
}

// TransferAdmin hands super-admin rights to next. Only the current
// super-admin may call it.
func (s *Service) TransferAdmin(ctx context.Context, caller, next escrow.Principal) error {
	return s.update(ctx, caller, next, activity.TypeAdminTransferred, func(st *State) escrow.Principal {
		prev := st.SuperAdmin
		st.SuperAdmin = next
		return prev
	})
}

// UpdatePlatformWallet replaces the platform fee recipient. Only the current
// super-admin may call it.
func (s *Service) UpdatePlatformWallet(ctx context.Context, caller, wallet escrow.Principal) error {
	return s.update(ctx, caller, wallet, activity.TypePlatformWalletUpdated, func(st *State) escrow.Principal {
		prev := st.PlatformWallet
		st.PlatformWallet = wallet
		return prev
	})
}

func (s *Service) update(ctx context.Context, caller, value escrow.Principal, typ activity.Type, apply func(*State) escrow.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		st, err := s.load(ctx)
		if err != nil {
			return err
		}
		if caller != st.SuperAdmin {
			return fmt.Errorf("%w: %s is not the %s", escrow.ErrNotAuthorized, caller, escrow.RoleSuperAdmin)
		}
		if !value.Valid() {
			return escrow.ErrInvalidPrincipal
		}
		if value == st.Custody {
			return fmt.Errorf("%w: %s is the custody account", escrow.ErrInvalidPrincipal, value)
		}
		prev := apply(st)
		st.UpdatedAt = s.now().UTC()
		if err := s.repo.Put(ctx, st); err != nil {
			return fmt.Errorf("saving governance: %w", err)
		}
		return s.activity.LogActivity(ctx, &activity.Entry{
			Actor:     caller.String(),
			Type:      typ,
			Summary:   fmt.Sprintf("%s -> %s", prev, value),
			Details:   activity.Details(map[string]string{"previous": prev.String(), "current": value.String()}),
			CreatedAt: st.UpdatedAt,
		})
	})
	if err != nil {
		s.logger.Debug("governance update rejected", "type", typ, "caller", caller, "error", err)
		return err
	}
	s.logger.Info("governance updated", "type", typ, "caller", caller, "value", value)
	return nil
}

// SuperAdmin returns the current super-admin.
func (s *Service) SuperAdmin(ctx context.Context) (escrow.Principal, error) {
	st, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return st.SuperAdmin, nil
}

// PlatformWallet returns the current platform fee recipient.
func (s *Service) PlatformWallet(ctx context.Context) (escrow.Principal, error) {
	st, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return st.PlatformWallet, nil
}

func (s *Service) load(ctx context.Context) (*State, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("reading governance: %w", err)
	}
	return st, nil
}
