// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain/ports/repository"
)

// StatsUseCase aggregates read-only figures for the admin panel.
type StatsUseCase interface {
	// Totals returns active activation counts per module and the sum of
	// all outstanding token balances.
	Totals(ctx context.Context) (map[string]int, decimal.Decimal, error)
}

var _ StatsUseCase = (*statsUC)(nil)

type statsUC struct {
	activations repository.ActivationRepository
	accounts    repository.TokenAccountRepository
}

func NewStatsUseCase(activations repository.ActivationRepository, accounts repository.TokenAccountRepository) StatsUseCase {
	return &statsUC{activations: activations, accounts: accounts}
}

func (u *statsUC) Totals(ctx context.Context) (map[string]int, decimal.Decimal, error) {
	byModule, err := u.activations.CountActiveByModule(ctx, repository.NoTX)
	if err != nil {
		return nil, decimal.Zero, err
	}
	outstanding, err := u.accounts.TotalBalance(ctx, repository.NoTX)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return byModule, outstanding, nil
}
