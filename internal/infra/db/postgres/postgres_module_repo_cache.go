package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
	"household-module-ledger/internal/infra/metrics"
	red "household-module-ledger/internal/infra/redis"
)

var _ repository.ModuleRepository = (*moduleRepoCacheDecorator)(nil)

// moduleRepoCacheDecorator caches the module registry in Redis. The
// registry is small and read on every listing, so it is the one table
// worth caching; writes invalidate both the entry and the full list.
type moduleRepoCacheDecorator struct {
	inner repository.ModuleRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewModuleRepoCacheDecorator(inner repository.ModuleRepository, cache red.RedisClient, ttl time.Duration) repository.ModuleRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &moduleRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *moduleRepoCacheDecorator) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Module, error) {
	cacheKey := fmt.Sprintf("module:%s", key)
	val, err := d.cache.Get(ctx, cacheKey)
	if err == nil {
		metrics.IncCacheRequest("module", "hit")
		var m model.Module
		if json.Unmarshal([]byte(val), &m) == nil {
			return &m, nil
		}
	}

	metrics.IncCacheRequest("module", "miss")
	m, err := d.inner.FindByKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if m != nil {
		bytes, _ := json.Marshal(m)
		d.cache.Set(ctx, cacheKey, bytes, d.ttl)
	}
	return m, nil
}

func (d *moduleRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Module, error) {
	const cacheKey = "modules:all"
	val, err := d.cache.Get(ctx, cacheKey)
	if err == nil {
		metrics.IncCacheRequest("module_list", "hit")
		var mods []*model.Module
		if json.Unmarshal([]byte(val), &mods) == nil {
			return mods, nil
		}
	}

	metrics.IncCacheRequest("module_list", "miss")
	mods, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(mods) > 0 {
		bytes, _ := json.Marshal(mods)
		d.cache.Set(ctx, cacheKey, bytes, d.ttl)
	}
	return mods, nil
}

// Writes must invalidate the cache.
func (d *moduleRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, m *model.Module) error {
	d.cache.Del(ctx, fmt.Sprintf("module:%s", m.Key), "modules:all")
	return d.inner.Save(ctx, tx, m)
}

func (d *moduleRepoCacheDecorator) Deactivate(ctx context.Context, tx repository.Tx, key string) error {
	d.cache.Del(ctx, fmt.Sprintf("module:%s", key), "modules:all")
	return d.inner.Deactivate(ctx, tx, key)
}
