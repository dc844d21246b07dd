// File: internal/usecase/module_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

// ModuleUseCase manages the module registry (seed/admin surface).
type ModuleUseCase interface {
	Create(ctx context.Context, key, name, description string, category model.ModuleCategory, displayOrder int) (*model.Module, error)
	Get(ctx context.Context, key string) (*model.Module, error)
	List(ctx context.Context) ([]*model.Module, error)
	// Deactivate flips the registry kill switch; entries are never deleted.
	Deactivate(ctx context.Context, key string) error
}

var _ ModuleUseCase = (*moduleUC)(nil)

type moduleUC struct {
	modules repository.ModuleRepository
	log     *zerolog.Logger
}

func NewModuleUseCase(modules repository.ModuleRepository, logger *zerolog.Logger) ModuleUseCase {
	l := logger.With().Str("component", "ModuleUC").Logger()
	return &moduleUC{modules: modules, log: &l}
}

func (u *moduleUC) Create(ctx context.Context, key, name, description string, category model.ModuleCategory, displayOrder int) (*model.Module, error) {
	m, err := model.NewModule(key, name, description, category, displayOrder)
	if err != nil {
		return nil, err
	}
	if existing, err := u.modules.FindByKey(ctx, repository.NoTX, m.Key); err == nil && existing != nil {
		return nil, domain.ErrAlreadyExists
	}
	if err := u.modules.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	u.log.Info().Str("module", m.Key).Str("category", string(m.Category)).Msg("module registered")
	return m, nil
}

func (u *moduleUC) Get(ctx context.Context, key string) (*model.Module, error) {
	return u.modules.FindByKey(ctx, repository.NoTX, key)
}

func (u *moduleUC) List(ctx context.Context) ([]*model.Module, error) {
	return u.modules.ListAll(ctx, repository.NoTX)
}

func (u *moduleUC) Deactivate(ctx context.Context, key string) error {
	if _, err := u.modules.FindByKey(ctx, repository.NoTX, key); err != nil {
		return err
	}
	return u.modules.Deactivate(ctx, repository.NoTX, key)
}
