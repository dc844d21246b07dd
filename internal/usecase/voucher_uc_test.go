//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
)

func TestVoucherUseCase_Validate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newFixture := func(t *testing.T) (*memVoucherRepo, VoucherUseCase) {
		t.Helper()
		repo := newMemVoucherRepo()
		return repo, NewVoucherUseCase(repo, newTestLogger())
	}
	seed := func(t *testing.T, repo *memVoucherRepo, code string, percent, fixed, minimum decimal.Decimal, maxUses *int, validFrom time.Time, validUntil *time.Time) *model.VoucherCode {
		t.Helper()
		v, err := model.NewVoucherCode(code, percent, fixed, minimum, maxUses, validFrom, validUntil)
		if err != nil {
			t.Fatalf("new voucher: %v", err)
		}
		if err := repo.Save(ctx, nil, v); err != nil {
			t.Fatalf("save: %v", err)
		}
		return v
	}
	past := time.Now().UTC().Add(-time.Hour)

	t.Run("percent discount quote", func(t *testing.T) {
		repo, uc := newFixture(t)
		seed(t, repo, "SAVE20", decimal.NewFromInt(20), decimal.Zero, decimal.Zero, nil, past, nil)

		q, err := uc.Validate(ctx, "save20", decimal.NewFromInt(50))
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if !q.Discount.Equal(decimal.NewFromInt(10)) || !q.FinalPrice.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected discount 10, final 40; got %s/%s", q.Discount, q.FinalPrice)
		}
	})

	t.Run("combined percent and fixed discount", func(t *testing.T) {
		repo, uc := newFixture(t)
		seed(t, repo, "COMBO", decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.Zero, nil, past, nil)

		q, err := uc.Validate(ctx, "COMBO", decimal.NewFromInt(100))
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if !q.Discount.Equal(decimal.NewFromInt(15)) || !q.FinalPrice.Equal(decimal.NewFromInt(85)) {
			t.Errorf("expected discount 15, final 85; got %s/%s", q.Discount, q.FinalPrice)
		}
	})

	t.Run("discount is capped at the purchase amount", func(t *testing.T) {
		repo, uc := newFixture(t)
		seed(t, repo, "BIG", decimal.NewFromInt(50), decimal.NewFromInt(100), decimal.Zero, nil, past, nil)

		q, err := uc.Validate(ctx, "BIG", decimal.NewFromInt(30))
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if !q.Discount.Equal(decimal.NewFromInt(30)) || !q.FinalPrice.IsZero() {
			t.Errorf("expected full discount and zero final price, got %s/%s", q.Discount, q.FinalPrice)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		_, uc := newFixture(t)
		if _, err := uc.Validate(ctx, "GHOST", decimal.NewFromInt(10)); !errors.Is(err, domain.ErrVoucherNotFound) {
			t.Fatalf("expected ErrVoucherNotFound, got %v", err)
		}
	})

	t.Run("validity window", func(t *testing.T) {
		repo, uc := newFixture(t)
		future := time.Now().UTC().Add(time.Hour)
		seed(t, repo, "SOON", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, nil, future, nil)
		if _, err := uc.Validate(ctx, "SOON", decimal.NewFromInt(10)); !errors.Is(err, domain.ErrVoucherExpired) {
			t.Fatalf("expected ErrVoucherExpired before valid_from, got %v", err)
		}

		gone := time.Now().UTC().Add(-time.Minute)
		seed(t, repo, "GONE", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, nil, past, &gone)
		if _, err := uc.Validate(ctx, "GONE", decimal.NewFromInt(10)); !errors.Is(err, domain.ErrVoucherExpired) {
			t.Fatalf("expected ErrVoucherExpired after valid_until, got %v", err)
		}
	})

	t.Run("usage cap", func(t *testing.T) {
		repo, uc := newFixture(t)
		one := 1
		v := seed(t, repo, "CAPPED", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, &one, past, nil)
		if err := repo.IncrementUsage(ctx, nil, v.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
		if _, err := uc.Validate(ctx, "CAPPED", decimal.NewFromInt(10)); !errors.Is(err, domain.ErrVoucherExhausted) {
			t.Fatalf("expected ErrVoucherExhausted, got %v", err)
		}
	})

	t.Run("minimum purchase", func(t *testing.T) {
		repo, uc := newFixture(t)
		seed(t, repo, "MIN50", decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(50), nil, past, nil)
		if _, err := uc.Validate(ctx, "MIN50", decimal.NewFromInt(49)); !errors.Is(err, domain.ErrMinimumPurchaseNotMet) {
			t.Fatalf("expected ErrMinimumPurchaseNotMet, got %v", err)
		}
		if _, err := uc.Validate(ctx, "MIN50", decimal.NewFromInt(50)); err != nil {
			t.Fatalf("exactly the minimum must pass, got %v", err)
		}
	})

	t.Run("validation never consumes usage", func(t *testing.T) {
		repo, uc := newFixture(t)
		seed(t, repo, "READONLY", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, nil, past, nil)
		for i := 0; i < 3; i++ {
			if _, err := uc.Validate(ctx, "READONLY", decimal.NewFromInt(10)); err != nil {
				t.Fatalf("validate %d: %v", i, err)
			}
		}
		stored, _ := repo.FindByCode(ctx, nil, "READONLY")
		if stored.UsedCount != 0 {
			t.Errorf("validation incremented used_count to %d", stored.UsedCount)
		}
	})
}

func TestVoucherUseCase_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMemVoucherRepo()
	uc := NewVoucherUseCase(repo, newTestLogger())
	past := time.Now().UTC().Add(-time.Hour)

	v, err := uc.Create(ctx, "launch10", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, nil, past, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.Code != "LAUNCH10" {
		t.Errorf("codes must be stored uppercased, got %q", v.Code)
	}

	if _, err := uc.Create(ctx, "LAUNCH10", decimal.NewFromInt(20), decimal.Zero, decimal.Zero, nil, past, nil); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
