//go:build !integration

package postgres

import (
	"context"
	"time"

	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
	red "household-module-ledger/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerModuleRepo mocks the database repository that the module decorator wraps.
type mockInnerModuleRepo struct {
	FindByKeyFunc  func(ctx context.Context, tx repository.Tx, key string) (*model.Module, error)
	ListAllFunc    func(ctx context.Context, tx repository.Tx) ([]*model.Module, error)
	SaveFunc       func(ctx context.Context, tx repository.Tx, m *model.Module) error
	DeactivateFunc func(ctx context.Context, tx repository.Tx, key string) error
}

var _ repository.ModuleRepository = &mockInnerModuleRepo{}

func (m *mockInnerModuleRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Module, error) {
	return m.FindByKeyFunc(ctx, tx, key)
}
func (m *mockInnerModuleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Module, error) {
	return m.ListAllFunc(ctx, tx)
}
func (m *mockInnerModuleRepo) Save(ctx context.Context, tx repository.Tx, mod *model.Module) error {
	return m.SaveFunc(ctx, tx, mod)
}
func (m *mockInnerModuleRepo) Deactivate(ctx context.Context, tx repository.Tx, key string) error {
	return m.DeactivateFunc(ctx, tx, key)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	PingFunc  func(ctx context.Context) error
	SetFunc   func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetFunc   func(ctx context.Context, key string) (string, error)
	DelFunc   func(ctx context.Context, keys ...string) error
	CloseFunc func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
