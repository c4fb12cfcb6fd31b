// Package cached wraps a student repository with a read-through cache.
package cached

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/internal/infrastructure/metrics"
	"github.com/studyhub/study-dashboard/pkg/circuitbreaker"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

// Config configures a Repository.
type Config struct {
	// TTL for cached records. Zero leaves the choice to the cache.
	TTL time.Duration

	// Breaker guards cache calls. Nil creates circuitbreaker.CacheBreaker.
	Breaker *circuitbreaker.CircuitBreaker

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// errCacheBypassed marks a read skipped by the open breaker.
var errCacheBypassed = errors.New("cache bypassed")

// Repository is a cache-aside student.Repository.
// Cache failures never fail a lookup; the store stays authoritative.
// Misses in the store are not cached.
type Repository struct {
	next    student.Repository
	cache   student.Cache
	breaker *circuitbreaker.CircuitBreaker
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

var _ student.Repository = (*Repository)(nil)

// NewRepository creates a Repository in front of next.
func NewRepository(next student.Repository, cache student.Cache, cfg Config) *Repository {
	r := &Repository{
		next:    next,
		cache:   cache,
		breaker: cfg.Breaker,
		ttl:     cfg.TTL,
		metrics: cfg.Metrics,
		log:     logger.OrDefault(cfg.Logger).With(logger.Component("student-cache")),
	}

	if r.breaker == nil {
		r.breaker = circuitbreaker.CacheBreaker(r.onStateChange, isCacheFailure)
	}

	return r
}

// FindByMatriculation tries the cache first and fills it after a store hit.
func (r *Repository) FindByMatriculation(ctx context.Context, id student.MatriculationNumber) (*student.Student, error) {
	if st, ok := r.fromCache(ctx, id); ok {
		return st, nil
	}

	st, err := r.next.FindByMatriculation(ctx, id)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, st)
	return st, nil
}

// Breaker exposes the cache circuit breaker for health reporting.
func (r *Repository) Breaker() *circuitbreaker.CircuitBreaker {
	return r.breaker
}

func (r *Repository) fromCache(ctx context.Context, id student.MatriculationNumber) (*student.Student, bool) {
	var st *student.Student

	err := r.breaker.ExecuteWithFallback(ctx, func(ctx context.Context) error {
		var err error
		st, err = r.cache.Get(ctx, id)
		return err
	}, func(error) error {
		r.metrics.IncCache(metrics.CacheBypass)
		return errCacheBypassed
	})

	switch {
	case err == nil:
		r.metrics.IncCache(metrics.CacheHit)
		return st, true
	case errors.Is(err, errCacheBypassed):
	case errors.Is(err, student.ErrStudentNotFound):
		r.metrics.IncCache(metrics.CacheMiss)
	default:
		r.metrics.IncCache(metrics.CacheError)
		r.log.WarnContext(ctx, "cache read failed", logger.Matriculation(id.String()), logger.Err(err))
	}

	return nil, false
}

func (r *Repository) fill(ctx context.Context, st *student.Student) {
	// An open breaker skips the write silently.
	err := r.breaker.ExecuteWithFallback(ctx, func(ctx context.Context) error {
		return r.cache.Set(ctx, st, r.ttl)
	}, func(error) error { return nil })
	if err != nil {
		r.log.WarnContext(ctx, "cache write failed", logger.Matriculation(st.MatriculationNumber.String()), logger.Err(err))
	}
}

func (r *Repository) onStateChange(name string, from, to circuitbreaker.State) {
	r.metrics.SetBreakerState(name, int(to))
	r.log.Warn("circuit breaker state changed",
		slog.String("breaker", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// isCacheFailure treats a miss as a healthy answer.
func isCacheFailure(err error) bool {
	return !errors.Is(err, student.ErrStudentNotFound)
}
