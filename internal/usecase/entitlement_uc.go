// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
	"household-module-ledger/internal/infra/logging"
)

// ModuleStatus is one row of the per-user module listing: the registry
// entry joined with the user's activation state.
type ModuleStatus struct {
	Module    *model.Module
	Active    bool
	ExpiresAt *time.Time // nil for free modules and inactive premium ones
}

// DeactivationResult reports the refund outcome of a deactivation.
type DeactivationResult struct {
	Refunded     bool
	RefundAmount decimal.Decimal
}

// EntitlementUseCase is the module activation engine plus its read-only
// projections. Each (user, module) pair moves Inactive -> Active ->
// Expired/Deactivated, re-activatable with a fresh row.
type EntitlementUseCase interface {
	// Activate debits one token and creates a one-month activation with
	// the next per-user activation order. Debit and insert are one unit.
	Activate(ctx context.Context, userID int64, moduleKey string) (*model.ModuleActivation, error)

	// Deactivate flips the active row off and refunds the full token cost
	// when fewer than fifteen whole days elapsed, zero otherwise. Natural
	// expiry is never refunded.
	Deactivate(ctx context.Context, userID int64, moduleKey string) (*DeactivationResult, error)

	// SweepExpirations flips every activation due at `now` to inactive,
	// without refund, and returns how many rows it expired. Idempotent.
	SweepExpirations(ctx context.Context, now time.Time) (int, error)

	// ActiveModules returns all modules usable by the user right now:
	// free-category entries plus premium ones with a live activation.
	ActiveModules(ctx context.Context, userID int64) ([]*model.Module, error)

	// AvailableModules returns the enabled registry joined with the
	// user's activation status, for rendering activate/deactivate
	// affordances.
	AvailableModules(ctx context.Context, userID int64) ([]*ModuleStatus, error)
}

var _ EntitlementUseCase = (*entitlementUC)(nil)

type entitlementUC struct {
	modules     repository.ModuleRepository
	activations repository.ActivationRepository
	accounts    repository.TokenAccountRepository
	ledger      repository.TokenTransactionRepository
	tx          repository.TransactionManager
	cost        decimal.Decimal
	log         *zerolog.Logger
}

func NewEntitlementUseCase(modules repository.ModuleRepository, activations repository.ActivationRepository, accounts repository.TokenAccountRepository, ledger repository.TokenTransactionRepository, tx repository.TransactionManager, logger *zerolog.Logger) EntitlementUseCase {
	l := logger.With().Str("component", "EntitlementUC").Logger()
	return &entitlementUC{
		modules:     modules,
		activations: activations,
		accounts:    accounts,
		ledger:      ledger,
		tx:          tx,
		cost:        model.DefaultActivationCost,
		log:         &l,
	}
}

func (u *entitlementUC) lookupPremium(ctx context.Context, moduleKey string) (*model.Module, error) {
	mod, err := u.modules.FindByKey(ctx, repository.NoTX, moduleKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrModuleNotFound
		}
		return nil, err
	}
	if !mod.IsActive {
		return nil, domain.ErrModuleNotFound
	}
	return mod, nil
}

func (u *entitlementUC) Activate(ctx context.Context, userID int64, moduleKey string) (*model.ModuleActivation, error) {
	defer logging.TraceDuration(u.log, "EntitlementUC.Activate")()
	if userID <= 0 || moduleKey == "" {
		return nil, domain.ErrInvalidArgument
	}
	mod, err := u.lookupPremium(ctx, moduleKey)
	if err != nil {
		return nil, err
	}
	if !mod.Premium() {
		// Free modules are always on; there is nothing to activate.
		return nil, domain.ErrAlreadyActive
	}

	var activation *model.ModuleActivation
	err = u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()

		// The account row lock serializes all of the user's mutations.
		if _, err := u.accounts.FindForUpdate(ctx, tx, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewInsufficientTokens(u.cost, decimal.Zero)
			}
			return err
		}

		existing, err := u.activations.FindActive(ctx, tx, userID, moduleKey)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			if !existing.Expired(now) {
				return domain.ErrAlreadyActive
			}
			// Lazily expire an overdue row so re-activation can proceed.
			if _, err := u.activations.MarkInactive(ctx, tx, existing.ID, now); err != nil {
				return err
			}
		}

		order, err := u.activations.NextActivationOrder(ctx, tx, userID)
		if err != nil {
			return err
		}
		activation, err = model.NewModuleActivation(userID, moduleKey, order, u.cost, now)
		if err != nil {
			return err
		}

		if _, err := applyBalanceChange(ctx, tx, u.accounts, u.ledger, userID, balanceChange{
			Type:          model.TransactionTypeDeduction,
			Amount:        u.cost.Neg(),
			ReferenceType: model.ReferenceTypeModuleActivation,
			ReferenceID:   activation.ID,
			Description:   fmt.Sprintf("activation of module %s", moduleKey),
		}); err != nil {
			return err
		}
		return u.activations.Save(ctx, tx, activation)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Int64("user_id", userID).Str("module", moduleKey).Int64("order", activation.ActivationOrder).Msg("module activated")
	return activation, nil
}

func (u *entitlementUC) Deactivate(ctx context.Context, userID int64, moduleKey string) (*DeactivationResult, error) {
	defer logging.TraceDuration(u.log, "EntitlementUC.Deactivate")()
	if userID <= 0 || moduleKey == "" {
		return nil, domain.ErrInvalidArgument
	}
	// Deliberately no registry kill-switch check here: a user with a live
	// activation keeps the right to deactivate and collect the refund even
	// after an admin disables the module.
	mod, err := u.modules.FindByKey(ctx, repository.NoTX, moduleKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrModuleNotFound
		}
		return nil, err
	}
	if !mod.Premium() {
		return nil, domain.ErrNotActive
	}

	var result *DeactivationResult
	err = u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()

		if _, err := u.accounts.FindForUpdate(ctx, tx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		act, err := u.activations.FindActive(ctx, tx, userID, moduleKey)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotActive
			}
			return err
		}

		// MarkInactive re-checks is_active inside the transaction; a
		// sweep that won the race leaves nothing to deactivate.
		flipped, err := u.activations.MarkInactive(ctx, tx, act.ID, now)
		if err != nil {
			return err
		}
		if !flipped {
			return domain.ErrNotActive
		}

		refund := decimal.Zero
		if !act.Expired(now) {
			refund = act.RefundAmount(now)
		}
		if refund.Sign() > 0 {
			if _, err := applyBalanceChange(ctx, tx, u.accounts, u.ledger, userID, balanceChange{
				Type:          model.TransactionTypeRefund,
				Amount:        refund,
				ReferenceType: model.ReferenceTypeModuleDeactivation,
				ReferenceID:   act.ID,
				Description:   fmt.Sprintf("refund for early deactivation of module %s", moduleKey),
			}); err != nil {
				return err
			}
		}
		result = &DeactivationResult{Refunded: refund.Sign() > 0, RefundAmount: refund}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Int64("user_id", userID).Str("module", moduleKey).Bool("refunded", result.Refunded).Msg("module deactivated")
	return result, nil
}

func (u *entitlementUC) SweepExpirations(ctx context.Context, now time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "EntitlementUC.SweepExpirations")()
	count := 0
	err := u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		due, err := u.activations.FindDue(ctx, tx, now)
		if err != nil {
			return err
		}
		for _, act := range due {
			flipped, err := u.activations.MarkInactive(ctx, tx, act.ID, now)
			if err != nil {
				return err
			}
			if flipped {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (u *entitlementUC) ActiveModules(ctx context.Context, userID int64) ([]*model.Module, error) {
	statuses, err := u.AvailableModules(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*model.Module
	for _, st := range statuses {
		if st.Active {
			out = append(out, st.Module)
		}
	}
	return out, nil
}

func (u *entitlementUC) AvailableModules(ctx context.Context, userID int64) ([]*ModuleStatus, error) {
	if userID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	mods, err := u.modules.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	acts, err := u.activations.ListActiveByUser(ctx, repository.NoTX, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	byKey := make(map[string]*model.ModuleActivation, len(acts))
	for _, a := range acts {
		if !a.Expired(now) {
			byKey[a.ModuleKey] = a
		}
	}

	var out []*ModuleStatus
	for _, m := range mods {
		if !m.IsActive {
			continue
		}
		st := &ModuleStatus{Module: m}
		if !m.Premium() {
			st.Active = true
		} else if a, ok := byKey[m.Key]; ok {
			st.Active = true
			expiry := a.ExpiresAt
			st.ExpiresAt = &expiry
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Module.DisplayOrder < out[j].Module.DisplayOrder
	})
	return out, nil
}
