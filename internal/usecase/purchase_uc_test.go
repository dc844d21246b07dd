//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

type purchaseFixture struct {
	accounts *memAccountRepo
	ledger   *memLedgerRepo
	vouchers *memVoucherRepo
	uc       PurchaseUseCase
}

func newPurchaseFixture(unitPrice int64) *purchaseFixture {
	f := &purchaseFixture{
		accounts: newMemAccountRepo(),
		ledger:   newMemLedgerRepo(),
		vouchers: newMemVoucherRepo(),
	}
	f.uc = NewPurchaseUseCase(f.accounts, f.ledger, f.vouchers, &mockTxManager{}, decimal.NewFromInt(unitPrice), newTestLogger())
	return f
}

func (f *purchaseFixture) seedVoucher(t *testing.T, code string, percent int64) *model.VoucherCode {
	t.Helper()
	v, err := model.NewVoucherCode(code, decimal.NewFromInt(percent), decimal.Zero, decimal.Zero, nil, time.Now().UTC().Add(-time.Hour), nil)
	if err != nil {
		t.Fatalf("new voucher: %v", err)
	}
	if err := f.vouchers.Save(context.Background(), nil, v); err != nil {
		t.Fatalf("save voucher: %v", err)
	}
	return v
}

func TestPurchaseUseCase_Purchase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("credits tokens and writes a paired ledger row", func(t *testing.T) {
		f := newPurchaseFixture(10)

		res, err := f.uc.Purchase(ctx, 1, 5, "")
		if err != nil {
			t.Fatalf("purchase: %v", err)
		}
		if !res.NewBalance.Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected balance 5, got %s", res.NewBalance)
		}
		if !res.OriginalPrice.Equal(decimal.NewFromInt(50)) || !res.FinalPrice.Equal(decimal.NewFromInt(50)) {
			t.Errorf("unexpected pricing: %+v", res)
		}

		acct, err := f.accounts.Find(ctx, nil, 1)
		if err != nil {
			t.Fatalf("account should exist after purchase: %v", err)
		}
		if !acct.TotalPurchased.Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected total_purchased 5, got %s", acct.TotalPurchased)
		}

		entries, _ := f.ledger.ListAllByUser(ctx, nil, 1)
		if len(entries) != 1 {
			t.Fatalf("expected 1 ledger row, got %d", len(entries))
		}
		e := entries[0]
		if e.Type != model.TransactionTypePurchase || !e.Amount.Equal(decimal.NewFromInt(5)) {
			t.Errorf("unexpected ledger row: %+v", e)
		}
		if !e.Consistent() || !e.BalanceBefore.IsZero() || !e.BalanceAfter.Equal(decimal.NewFromInt(5)) {
			t.Errorf("ledger chain broken: %+v", e)
		}
	})

	t.Run("20 percent voucher on a 5-token purchase at unit price 10", func(t *testing.T) {
		f := newPurchaseFixture(10)
		v := f.seedVoucher(t, "SAVE20", 20)

		res, err := f.uc.Purchase(ctx, 2, 5, "SAVE20")
		if err != nil {
			t.Fatalf("purchase: %v", err)
		}
		if !res.Discount.Equal(decimal.NewFromInt(10)) {
			t.Errorf("expected discount 10, got %s", res.Discount)
		}
		if !res.FinalPrice.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected final price 40, got %s", res.FinalPrice)
		}
		if !res.NewBalance.Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected 5 tokens credited regardless of discount, got %s", res.NewBalance)
		}

		used, _ := f.vouchers.HasUsage(ctx, nil, v.ID, 2)
		if !used {
			t.Error("expected a voucher usage row")
		}
		stored, _ := f.vouchers.FindByCode(ctx, nil, "SAVE20")
		if stored.UsedCount != 1 {
			t.Errorf("expected used_count 1, got %d", stored.UsedCount)
		}
		entries, _ := f.ledger.ListAllByUser(ctx, nil, 2)
		if len(entries) != 1 || entries[0].VoucherID == nil || *entries[0].VoucherID != v.ID {
			t.Errorf("expected ledger row linked to voucher, got %+v", entries)
		}
	})

	t.Run("second redemption by the same user fails without mutation", func(t *testing.T) {
		f := newPurchaseFixture(10)
		f.seedVoucher(t, "ONCE", 10)

		if _, err := f.uc.Purchase(ctx, 3, 2, "ONCE"); err != nil {
			t.Fatalf("first purchase: %v", err)
		}
		_, err := f.uc.Purchase(ctx, 3, 2, "ONCE")
		if !errors.Is(err, domain.ErrVoucherAlreadyUsed) {
			t.Fatalf("expected ErrVoucherAlreadyUsed, got %v", err)
		}

		acct, _ := f.accounts.Find(ctx, nil, 3)
		if !acct.Balance.Equal(decimal.NewFromInt(2)) {
			t.Errorf("balance mutated by failed purchase: %s", acct.Balance)
		}
		entries, _ := f.ledger.ListAllByUser(ctx, nil, 3)
		if len(entries) != 1 {
			t.Errorf("expected 1 ledger row after failed retry, got %d", len(entries))
		}
	})

	t.Run("unknown voucher fails without mutation", func(t *testing.T) {
		f := newPurchaseFixture(10)
		_, err := f.uc.Purchase(ctx, 4, 2, "NOPE")
		if !errors.Is(err, domain.ErrVoucherNotFound) {
			t.Fatalf("expected ErrVoucherNotFound, got %v", err)
		}
		if _, err := f.accounts.Find(ctx, nil, 4); !errors.Is(err, domain.ErrNotFound) {
			t.Error("account should not be created by a failed purchase")
		}
	})

	t.Run("minimum purchase enforced", func(t *testing.T) {
		f := newPurchaseFixture(10)
		v, err := model.NewVoucherCode("MIN100", decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(100), nil, time.Now().UTC().Add(-time.Hour), nil)
		if err != nil {
			t.Fatalf("new voucher: %v", err)
		}
		_ = f.vouchers.Save(ctx, nil, v)

		_, err = f.uc.Purchase(ctx, 5, 2, "MIN100") // price 20 < minimum 100
		if !errors.Is(err, domain.ErrMinimumPurchaseNotMet) {
			t.Fatalf("expected ErrMinimumPurchaseNotMet, got %v", err)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newPurchaseFixture(10)
		if _, err := f.uc.Purchase(ctx, 6, 0, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("repeat purchases extend the ledger chain", func(t *testing.T) {
		f := newPurchaseFixture(10)
		for i := 0; i < 3; i++ {
			if _, err := f.uc.Purchase(ctx, 7, 4, ""); err != nil {
				t.Fatalf("purchase %d: %v", i, err)
			}
		}
		entries, _ := f.ledger.ListAllByUser(ctx, nil, 7)
		if len(entries) != 3 {
			t.Fatalf("expected 3 ledger rows, got %d", len(entries))
		}
		running := decimal.Zero
		for _, e := range entries {
			if !e.BalanceBefore.Equal(running) {
				t.Errorf("chain broken at %s: before=%s running=%s", e.ID, e.BalanceBefore, running)
			}
			running = running.Add(e.Amount)
		}
		acct, _ := f.accounts.Find(ctx, nil, 7)
		if !acct.Balance.Equal(running) {
			t.Errorf("folded ledger %s != balance %s", running, acct.Balance)
		}
	})
}
