package idempotency

import (
	"context"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/mocks"
)

func TestFileStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fileSystem := mocks.NewMockFileSystem(ctrl)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := steppingClock(ctrl, &now)
	ctx := context.Background()

	dir := ".idempotency"
	path := filepath.Join(dir, hex.EncodeToString([]byte("attest:rcpt_1"))+".json")

	fileSystem.EXPECT().MkdirAll(dir, os.FileMode(0o750)).Return(nil)
	s, err := NewFileStore(dir, fileSystem, clock, adapter.NewJSON())
	require.NoError(t, err)

	var written []byte
	gomock.InOrder(
		fileSystem.EXPECT().ReadFile(path).Return(nil, fs.ErrNotExist),
		fileSystem.EXPECT().WriteFile(path, gomock.Any(), os.FileMode(0o600)).
			DoAndReturn(func(_ string, data []byte, _ os.FileMode) error {
				written = data
				return nil
			}),
	)

	ok, _, err := s.TrySet(ctx, "attest:rcpt_1", []byte(`{"worker":"a"}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"value":{"worker":"a"},"expires_at":"2025-03-01T10:01:00Z"}`, string(written))

	fileSystem.EXPECT().ReadFile(path).Return(written, nil)
	ok, current, err := s.TrySet(ctx, "attest:rcpt_1", []byte(`{"worker":"b"}`), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.JSONEq(t, `{"worker":"a"}`, string(current))

	now = now.Add(time.Minute)
	fileSystem.EXPECT().ReadFile(path).Return(written, nil)
	value, err := s.Get(ctx, "attest:rcpt_1")
	require.NoError(t, err)
	assert.Nil(t, value, "expired claim")

	fileSystem.EXPECT().Remove(path).Return(fs.ErrNotExist)
	require.NoError(t, s.Delete(ctx, "attest:rcpt_1"))
}

func TestFileStore_ReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fileSystem := mocks.NewMockFileSystem(ctrl)
	fileSystem.EXPECT().MkdirAll("dir", gomock.Any()).Return(nil)
	fileSystem.EXPECT().ReadFile(gomock.Any()).Return(nil, errors.New("permission denied"))

	s, err := NewFileStore("dir", fileSystem, adapter.NewClock(), adapter.NewJSON())
	require.NoError(t, err)

	_, _, err = s.TrySet(context.Background(), "k", nil, time.Minute)
	assert.ErrorContains(t, err, "permission denied")
}
