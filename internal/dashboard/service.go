package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/sink"
	"github.com/spigell/interview-screener/internal/storage"
)

const defaultResultLimit = 500

// Cache keeps a rendered overview between requests.
type Cache interface {
	Get(ctx context.Context, target any) (bool, error)
	Set(ctx context.Context, value any) error
	Invalidate(ctx context.Context) error
}

// Service serves dashboard overviews and keeps the cache in sync with new
// results.
type Service struct {
	results storage.ResultRepo
	cache   Cache
	limit   int
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a Service. cache may be nil.
func NewService(results storage.ResultRepo, cache Cache, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = defaultResultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		results: results,
		cache:   cache,
		limit:   limit,
		logger:  logger,
		now:     time.Now,
	}
}

// Overview summarizes the most recent results, served from cache when
// possible. Cache failures are logged and otherwise ignored.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if s.cache != nil {
		var cached Overview
		hit, err := s.cache.Get(ctx, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	records, err := s.results.List(ctx, storage.ListFilter{Limit: s.limit})
	if err != nil {
		return Overview{}, fmt.Errorf("list results: %w", err)
	}

	overview := Summarize(records, s.now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, overview); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return overview, nil
}

// Persist stores the record and drops the cached overview.
func (s *Service) Persist(ctx context.Context, r sink.Record) error {
	if err := s.results.Persist(ctx, r); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}

	return nil
}
