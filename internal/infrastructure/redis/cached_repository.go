package redis

import (
	"context"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/logger"
)

var _ domain.MultiSnipeRepository = (*CachedRepository)(nil)

// CachedRepository serves identifier lookups from the record cache and
// falls through to the backing repository for everything else. Cache
// failures are logged and never fail the call.
type CachedRepository struct {
	repo  domain.MultiSnipeRepository
	cache domain.RecordCache
	log   logger.Logger
}

func NewCachedRepository(repo domain.MultiSnipeRepository, cache domain.RecordCache, log logger.Logger) *CachedRepository {
	return &CachedRepository{repo: repo, cache: cache, log: log}
}

func (r *CachedRepository) Save(ctx context.Context, rec *domain.Record) error {
	if err := r.repo.Save(ctx, rec); err != nil {
		return err
	}
	if err := r.cache.Invalidate(ctx, rec.Identifier); err != nil {
		r.log.Warn("Failed to invalidate cached multisnipe", "identifier", rec.Identifier, "error", err)
	}
	return nil
}

func (r *CachedRepository) Find(ctx context.Context, id int64) (*domain.Record, error) {
	return r.repo.Find(ctx, id)
}

func (r *CachedRepository) FindFirstBy(ctx context.Context, key, value string) (*domain.Record, error) {
	if key != "identifier" {
		return r.repo.FindFirstBy(ctx, key, value)
	}

	cached, err := r.cache.Get(ctx, value)
	if err != nil {
		r.log.Warn("Failed to read cached multisnipe", "identifier", value, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	rec, err := r.repo.FindFirstBy(ctx, key, value)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, rec); err != nil {
		r.log.Warn("Failed to cache multisnipe", "identifier", value, "error", err)
	}
	return rec, nil
}

func (r *CachedRepository) List(ctx context.Context) ([]*domain.Record, error) {
	return r.repo.List(ctx)
}

func (r *CachedRepository) Delete(ctx context.Context, id int64) error {
	rec, err := r.repo.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.cache.Invalidate(ctx, rec.Identifier); err != nil {
		r.log.Warn("Failed to invalidate cached multisnipe", "identifier", rec.Identifier, "error", err)
	}
	return nil
}
