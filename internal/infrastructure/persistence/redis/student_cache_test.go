package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentKey(t *testing.T) {
	assert.Equal(t, "dashboard:student:IU14102835", StudentKey("IU14102835"))
}

func TestStudentCache_SetRejectsNil(t *testing.T) {
	c := NewStudentCache(NewCacheFromClient(nil))
	assert.ErrorIs(t, c.Set(context.Background(), nil, 0), ErrCacheNilValue)
}

func TestCache_ValidatesArguments(t *testing.T) {
	ctx := context.Background()
	c := NewCacheFromClient(nil)

	assert.ErrorIs(t, c.Set(ctx, "", "v", 0), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheNilValue)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", -1), ErrCacheInvalidTTL)
	assert.ErrorIs(t, c.Get(ctx, "", nil), ErrCacheKeyEmpty)
	assert.NoError(t, c.Delete(ctx))
}
