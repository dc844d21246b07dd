package model

import (
	"strings"
	"time"

	"household-module-ledger/internal/domain"
)

type ModuleCategory string

const (
	ModuleCategoryFree    ModuleCategory = "free"
	ModuleCategoryPremium ModuleCategory = "premium"
)

// Module is a registry entry for a purchasable feature module.
// Entries are seeded or created by admins and never deleted; the
// IsActive flag is the registry-level kill switch.
type Module struct {
	Key          string
	Name         string
	Description  string
	Category     ModuleCategory
	DisplayOrder int
	IsActive     bool
	CreatedAt    time.Time
}

// NewModule validates and builds a registry entry.
func NewModule(key, name, description string, category ModuleCategory, displayOrder int) (*Module, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if category != ModuleCategoryFree && category != ModuleCategoryPremium {
		return nil, domain.ErrInvalidArgument
	}
	return &Module{
		Key:          key,
		Name:         name,
		Description:  description,
		Category:     category,
		DisplayOrder: displayOrder,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Premium reports whether the module must be rented with tokens.
func (m *Module) Premium() bool { return m.Category == ModuleCategoryPremium }
