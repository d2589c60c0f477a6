package idempotency

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/mocks"
)

func TestEncodeValue_Canonical(t *testing.T) {
	a, err := EncodeValue(map[string]interface{}{"b": 2, "a": 1.0, "c": []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":["x"]}`, string(a))

	b, err := EncodeValue(struct {
		C []string `json:"c"`
		B int      `json:"b"`
		A int      `json:"a"`
	}{C: []string{"x"}, B: 2, A: 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = EncodeValue(func() {})
	assert.Error(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name      string
		cfg       Config
		deps      Dependencies
		expectErr string
	}{
		{name: "memory", cfg: Config{Backend: BackendMemory}},
		{name: "redis", cfg: Config{Backend: BackendRedis}, deps: Dependencies{Redis: mocks.NewMockRedisClient(ctrl)}},
		{name: "redis without client", cfg: Config{Backend: BackendRedis}, expectErr: "requires a redis client"},
		{name: "postgres without database", cfg: Config{Backend: BackendPostgres}, expectErr: "requires a database"},
		{name: "file outside debug", cfg: Config{Backend: BackendFile, Dir: "x"}, expectErr: "debug mode"},
		{name: "unknown", cfg: Config{Backend: "etcd"}, expectErr: "unknown idempotency backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, tt.deps)
			if tt.expectErr != "" {
				assert.ErrorContains(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}

	t.Run("file in debug", func(t *testing.T) {
		fileSystem := mocks.NewMockFileSystem(ctrl)
		fileSystem.EXPECT().MkdirAll("x", gomock.Any()).Return(nil)

		s, err := New(Config{Backend: BackendFile, Dir: "x", Debug: true}, Dependencies{FileSystem: fileSystem})
		require.NoError(t, err)
		assert.NotNil(t, s)
	})
}
