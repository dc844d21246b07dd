// File: internal/usecase/account_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
	"household-module-ledger/internal/infra/logging"
)

// AccountUseCase exposes token account reads and admin-side balance
// mutations. User-driven mutations live in the purchase and entitlement
// use cases; everything funnels through the same ledger pairing.
type AccountUseCase interface {
	// Get returns the user's account; users without one yet read as a
	// zero-balance account.
	Get(ctx context.Context, userID int64) (*model.TokenAccount, error)

	// ListTransactions returns one page of the user's ledger, newest first.
	// Page is 1-based.
	ListTransactions(ctx context.Context, userID int64, page, limit int) ([]*model.TokenTransaction, error)

	// Grant credits (or, with a negative amount, adjusts down) a user's
	// balance on behalf of an admin actor, recording processed_by.
	Grant(ctx context.Context, userID int64, amount decimal.Decimal, reason, processedBy string) (*model.TokenTransaction, error)
}

var _ AccountUseCase = (*accountUC)(nil)

type accountUC struct {
	accounts repository.TokenAccountRepository
	ledger   repository.TokenTransactionRepository
	tx       repository.TransactionManager
	log      *zerolog.Logger
}

func NewAccountUseCase(accounts repository.TokenAccountRepository, ledger repository.TokenTransactionRepository, tx repository.TransactionManager, logger *zerolog.Logger) AccountUseCase {
	l := logger.With().Str("component", "AccountUC").Logger()
	return &accountUC{accounts: accounts, ledger: ledger, tx: tx, log: &l}
}

func (u *accountUC) Get(ctx context.Context, userID int64) (*model.TokenAccount, error) {
	if userID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	acct, err := u.accounts.Find(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return model.NewTokenAccount(userID)
	}
	return acct, err
}

func (u *accountUC) ListTransactions(ctx context.Context, userID int64, page, limit int) ([]*model.TokenTransaction, error) {
	if userID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return u.ledger.ListByUser(ctx, repository.NoTX, userID, (page-1)*limit, limit)
}

func (u *accountUC) Grant(ctx context.Context, userID int64, amount decimal.Decimal, reason, processedBy string) (*model.TokenTransaction, error) {
	defer logging.TraceDuration(u.log, "AccountUC.Grant")()
	if userID <= 0 || amount.IsZero() || processedBy == "" {
		return nil, domain.ErrInvalidArgument
	}

	txType := model.TransactionTypeAdminGrant
	if amount.Sign() < 0 {
		txType = model.TransactionTypeBalanceAdjustment
	}
	if reason == "" {
		reason = fmt.Sprintf("admin %s of %s tokens", txType, amount)
	}

	var entry *model.TokenTransaction
	err := u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.accounts.CreateIfAbsent(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		entry, err = applyBalanceChange(ctx, tx, u.accounts, u.ledger, userID, balanceChange{
			Type:          txType,
			Amount:        amount,
			ReferenceType: model.ReferenceTypeAdminAction,
			Description:   reason,
			ProcessedBy:   &processedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Int64("user_id", userID).Str("amount", amount.String()).Str("by", processedBy).Msg("admin balance change applied")
	return entry, nil
}
