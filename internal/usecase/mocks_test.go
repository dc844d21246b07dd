//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

// mockTxManager runs the callback without a real transaction; repos
// accept the nil/sentinel tx handle.
type noTx struct{}

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, noTx{})
}

// --- module registry ---

type memModuleRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Module
}

func newMemModuleRepo() *memModuleRepo {
	return &memModuleRepo{store: make(map[string]*model.Module)}
}

func (m *memModuleRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Module, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.store[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mod
	return &cp, nil
}

func (m *memModuleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Module, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Module, 0, len(m.store))
	for _, mod := range m.store {
		cp := *mod
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memModuleRepo) Save(ctx context.Context, tx repository.Tx, mod *model.Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mod
	m.store[mod.Key] = &cp
	return nil
}

func (m *memModuleRepo) Deactivate(ctx context.Context, tx repository.Tx, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.store[key]
	if !ok {
		return domain.ErrNotFound
	}
	mod.IsActive = false
	return nil
}

// --- token accounts ---

type memAccountRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.TokenAccount
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{store: make(map[int64]*model.TokenAccount)}
}

func (m *memAccountRepo) Find(ctx context.Context, tx repository.Tx, userID int64) (*model.TokenAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccountRepo) FindForUpdate(ctx context.Context, tx repository.Tx, userID int64) (*model.TokenAccount, error) {
	return m.Find(ctx, tx, userID)
}

func (m *memAccountRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[userID]; ok {
		return nil
	}
	a, err := model.NewTokenAccount(userID)
	if err != nil {
		return err
	}
	m.store[userID] = a
	return nil
}

func (m *memAccountRepo) UpdateBalance(ctx context.Context, tx repository.Tx, userID int64, balance, purchasedDelta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Balance = balance
	a.TotalPurchased = a.TotalPurchased.Add(purchasedDelta)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memAccountRepo) TotalBalance(ctx context.Context, tx repository.Tx) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, a := range m.store {
		sum = sum.Add(a.Balance)
	}
	return sum, nil
}

// --- ledger ---

type memLedgerRepo struct {
	mu      sync.RWMutex
	entries []*model.TokenTransaction
}

func newMemLedgerRepo() *memLedgerRepo { return &memLedgerRepo{} }

func (m *memLedgerRepo) Append(ctx context.Context, tx repository.Tx, t *model.TokenTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedgerRepo) forUser(userID int64) []*model.TokenTransaction {
	var out []*model.TokenTransaction
	for _, e := range m.entries {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *memLedgerRepo) ListByUser(ctx context.Context, tx repository.Tx, userID int64, offset, limit int) ([]*model.TokenTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	asc := m.forUser(userID)
	// newest first
	for i, j := 0, len(asc)-1; i < j; i, j = i+1, j-1 {
		asc[i], asc[j] = asc[j], asc[i]
	}
	if offset >= len(asc) {
		return nil, nil
	}
	end := offset + limit
	if end > len(asc) {
		end = len(asc)
	}
	return asc[offset:end], nil
}

func (m *memLedgerRepo) ListAllByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.TokenTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forUser(userID), nil
}

// --- activations ---

type memActivationRepo struct {
	mu    sync.RWMutex
	store map[string]*model.ModuleActivation
}

func newMemActivationRepo() *memActivationRepo {
	return &memActivationRepo{store: make(map[string]*model.ModuleActivation)}
}

func (m *memActivationRepo) Save(ctx context.Context, tx repository.Tx, a *model.ModuleActivation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.IsActive && a.IsActive && other.UserID == a.UserID && other.ModuleKey == a.ModuleKey && other.ID != a.ID {
			return domain.ErrAlreadyActive
		}
	}
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *memActivationRepo) FindActive(ctx context.Context, tx repository.Tx, userID int64, moduleKey string) (*model.ModuleActivation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.store {
		if a.IsActive && a.UserID == userID && a.ModuleKey == moduleKey {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memActivationRepo) ListActiveByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.ModuleActivation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ModuleActivation
	for _, a := range m.store {
		if a.IsActive && a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivationOrder < out[j].ActivationOrder })
	return out, nil
}

func (m *memActivationRepo) NextActivationOrder(ctx context.Context, tx repository.Tx, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var max int64
	for _, a := range m.store {
		if a.UserID == userID && a.ActivationOrder > max {
			max = a.ActivationOrder
		}
	}
	return max + 1, nil
}

func (m *memActivationRepo) FindDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.ModuleActivation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ModuleActivation
	for _, a := range m.store {
		if a.IsActive && !a.ExpiresAt.After(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ActivationOrder < out[j].ActivationOrder
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out, nil
}

func (m *memActivationRepo) MarkInactive(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !a.IsActive {
		return false, nil
	}
	a.IsActive = false
	cp := at
	a.DeactivatedAt = &cp
	return true, nil
}

func (m *memActivationRepo) CountActiveByModule(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, a := range m.store {
		if a.IsActive {
			out[a.ModuleKey]++
		}
	}
	return out, nil
}

// --- vouchers ---

type usageKey struct {
	voucherID string
	userID    int64
}

type memVoucherRepo struct {
	mu     sync.RWMutex
	byCode map[string]*model.VoucherCode
	usages map[usageKey]*model.VoucherUsage
}

func newMemVoucherRepo() *memVoucherRepo {
	return &memVoucherRepo{
		byCode: make(map[string]*model.VoucherCode),
		usages: make(map[usageKey]*model.VoucherUsage),
	}
}

func (m *memVoucherRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.VoucherCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVoucherRepo) Save(ctx context.Context, tx repository.Tx, v *model.VoucherCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.byCode[v.Code] = &cp
	return nil
}

func (m *memVoucherRepo) IncrementUsage(ctx context.Context, tx repository.Tx, voucherID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.byCode {
		if v.ID == voucherID {
			v.UsedCount++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memVoucherRepo) HasUsage(ctx context.Context, tx repository.Tx, voucherID string, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.usages[usageKey{voucherID, userID}]
	return ok, nil
}

func (m *memVoucherRepo) SaveUsage(ctx context.Context, tx repository.Tx, u *model.VoucherUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := usageKey{u.VoucherID, u.UserID}
	if _, ok := m.usages[k]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *u
	m.usages[k] = &cp
	return nil
}
