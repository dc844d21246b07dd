package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/config"
	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	pg "household-module-ledger/internal/infra/db/postgres"
	"household-module-ledger/internal/infra/logging"
	"household-module-ledger/internal/usecase"
)

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	moduleUC := usecase.NewModuleUseCase(pg.NewModuleRepo(pool), logger)
	voucherUC := usecase.NewVoucherUseCase(pg.NewVoucherRepo(pool), logger)

	// If modules already exist, do nothing
	mods, err := moduleUC.List(ctx)
	if err != nil {
		log.Fatalf("list modules: %v", err)
	}
	if len(mods) > 0 {
		fmt.Printf("%d modules already present. No changes.\n", len(mods))
		for _, m := range mods {
			fmt.Printf("  - %s (%s, order=%d)\n", m.Key, m.Category, m.DisplayOrder)
		}
		return
	}

	// Seed the default module catalog
	seed := []struct {
		Key      string
		Name     string
		Desc     string
		Category model.ModuleCategory
		Order    int
	}{
		{"expense_tracker", "Expense Tracker", "Record and categorize day-to-day spending", model.ModuleCategoryFree, 1},
		{"shared_wallet", "Shared Wallet", "Household balance visible to every member", model.ModuleCategoryFree, 2},
		{"budget_forecast", "Budget Forecast", "Projected end-of-month balances per category", model.ModuleCategoryPremium, 3},
		{"contract_alerts", "Contract Alerts", "Reminders before recurring contracts renew", model.ModuleCategoryPremium, 4},
		{"tax_report", "Tax Report", "Yearly export of deductible expenses", model.ModuleCategoryPremium, 5},
	}

	for _, s := range seed {
		m, err := moduleUC.Create(ctx, s.Key, s.Name, s.Desc, s.Category, s.Order)
		if err != nil {
			log.Fatalf("create module %q: %v", s.Key, err)
		}
		fmt.Printf("seeded: %s (%s, order=%d)\n", m.Key, m.Category, m.DisplayOrder)
	}

	// A single welcome voucher for onboarding flows
	maxUses := 100
	v, err := voucherUC.Create(ctx, "WELCOME10",
		decimal.NewFromInt(10), decimal.Zero, decimal.Zero,
		&maxUses, time.Now().UTC(), nil)
	switch {
	case err == nil:
		fmt.Printf("seeded voucher: %s (10%%, max_uses=%d)\n", v.Code, maxUses)
	case errors.Is(err, domain.ErrAlreadyExists):
		fmt.Println("voucher WELCOME10 already present. No changes.")
	default:
		log.Fatalf("create voucher: %v", err)
	}

	fmt.Println("✅ Seeding complete.")
}
