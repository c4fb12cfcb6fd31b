package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studyhub/study-dashboard/internal/domain/student"
)

// StudentCache implements student.Cache on top of the generic Cache.
type StudentCache struct {
	cache *Cache
}

var _ student.Cache = (*StudentCache)(nil)

// NewStudentCache creates a new StudentCache.
func NewStudentCache(cache *Cache) *StudentCache {
	return &StudentCache{cache: cache}
}

// Get returns the cached student or student.ErrStudentNotFound on a miss.
func (s *StudentCache) Get(ctx context.Context, id student.MatriculationNumber) (*student.Student, error) {
	var st student.Student
	if err := s.cache.Get(ctx, StudentKey(id.String()), &st); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, student.ErrStudentNotFound
		}
		return nil, err
	}
	return &st, nil
}

// Set caches the student under its matriculation number.
func (s *StudentCache) Set(ctx context.Context, st *student.Student, ttl time.Duration) error {
	if st == nil {
		return ErrCacheNilValue
	}
	if ttl == 0 {
		ttl = TTLStudentCache
	}
	return s.cache.Set(ctx, StudentKey(st.MatriculationNumber.String()), st, ttl)
}

// Invalidate removes the student from cache.
func (s *StudentCache) Invalidate(ctx context.Context, id student.MatriculationNumber) error {
	return s.cache.Delete(ctx, StudentKey(id.String()))
}

// InvalidateAll clears every cached student.
func (s *StudentCache) InvalidateAll(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, PrefixStudent+"*")
}
