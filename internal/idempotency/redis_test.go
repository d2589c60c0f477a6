package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/mocks"
)

func TestRedisStore_TrySet(t *testing.T) {
	ctx := context.Background()

	t.Run("establishes a new key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockRedisClient(ctrl)
		client.EXPECT().SetNX(ctx, "idem:attest:rcpt_1", []byte(`{"a":1}`), time.Minute).
			Return(redis.NewBoolResult(true, nil))

		ok, current, err := NewRedisStore(client).TrySet(ctx, "attest:rcpt_1", []byte(`{"a":1}`), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, current)
	})

	t.Run("returns the current value of a held key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockRedisClient(ctrl)
		gomock.InOrder(
			client.EXPECT().SetNX(ctx, "idem:attest:rcpt_1", gomock.Any(), time.Minute).
				Return(redis.NewBoolResult(false, nil)),
			client.EXPECT().Get(ctx, "idem:attest:rcpt_1").
				Return(redis.NewStringResult(`{"a":0}`, nil)),
		)

		ok, current, err := NewRedisStore(client).TrySet(ctx, "attest:rcpt_1", []byte(`{"a":1}`), time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, `{"a":0}`, string(current))
	})

	t.Run("wraps client errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockRedisClient(ctrl)
		client.EXPECT().SetNX(ctx, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(redis.NewBoolResult(false, errors.New("dial tcp: connection refused")))

		_, _, err := NewRedisStore(client).TrySet(ctx, "k", nil, time.Minute)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("rejects a zero ttl", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, _, err := NewRedisStore(mocks.NewMockRedisClient(ctrl)).TrySet(ctx, "k", nil, 0)
		assert.ErrorIs(t, err, ErrInvalidTTL)
	})
}

func TestRedisStore_GetDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRedisClient(ctrl)
	s := NewRedisStore(client)
	ctx := context.Background()

	client.EXPECT().Get(ctx, "idem:missing").Return(redis.NewStringResult("", redis.Nil))
	value, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	client.EXPECT().Get(ctx, "idem:k").Return(redis.NewStringResult("true", nil))
	value, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "true", string(value))

	client.EXPECT().Del(ctx, "idem:k").Return(redis.NewIntResult(1, nil))
	require.NoError(t, s.Delete(ctx, "k"))
}
