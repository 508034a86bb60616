package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
)

const (
	catalogKeyPrefix  = "catalog:courses:"
	catalogKeyPattern = catalogKeyPrefix + "*"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService caches the course catalog, the only reference data the ledger keeps in Redis.
// Fee summaries and payments never pass through it.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

func catalogKey(program string) string {
	program = strings.ToUpper(strings.TrimSpace(program))
	if program == "" {
		program = "all"
	}
	return catalogKeyPrefix + program
}

// Courses returns the cached catalog for program. ok is false on a miss or when the cache is off.
func (s *CacheService) Courses(ctx context.Context, program string) ([]models.Course, bool) {
	if !s.Enabled() {
		return nil, false
	}
	key := catalogKey(program)
	start := time.Now()
	var courses []models.Course
	err := s.repo.Get(ctx, key, &courses)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return courses, true
}

// StoreCourses caches the catalog for program. Failures are logged and ignored.
func (s *CacheService) StoreCourses(ctx context.Context, program string, courses []models.Course) {
	if !s.Enabled() {
		return
	}
	key := catalogKey(program)
	if err := s.repo.Set(ctx, key, courses, s.ttl); err != nil {
		s.logger.Warn("catalog cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateCatalog drops every cached catalog view; called after each catalog write.
func (s *CacheService) InvalidateCatalog(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, catalogKeyPattern); err != nil {
		s.logger.Warn("catalog cache invalidate failed", zap.String("pattern", catalogKeyPattern), zap.Error(err))
		return err
	}
	return nil
}
