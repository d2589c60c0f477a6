package block_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/block"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/mocks"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testBlockProviderMocks struct {
	ctrl     *gomock.Controller
	fetcher  *mocks.MockBlockFetcher
	clock    *mocks.MockClock
	provider block.BlockProvider
}

func setupTest(t *testing.T, cfg block.Config) *testBlockProviderMocks {
	ctrl := gomock.NewController(t)

	mockFetcher := mocks.NewMockBlockFetcher(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	return &testBlockProviderMocks{
		ctrl:     ctrl,
		fetcher:  mockFetcher,
		clock:    mockClock,
		provider: block.NewBlockProvider(mockFetcher, cfg, mockClock),
	}
}

func tearDownTest(tm *testBlockProviderMocks) {
	tm.ctrl.Finish()
}

var defaultConfig = block.Config{
	TTL:         4 * time.Second,
	StaleWindow: time.Minute,
}

func TestBlockProvider_GetLatestBlock_UsesCacheWithinTTL(t *testing.T) {
	tm := setupTest(t, defaultConfig)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil)

	n, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), n)

	tm.clock.EXPECT().Now().Return(now.Add(2 * time.Second))

	n, err = tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), n)
}

func TestBlockProvider_GetLatestBlock_RefreshesAfterTTL(t *testing.T) {
	tm := setupTest(t, defaultConfig)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(now),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil),
		tm.clock.EXPECT().Now().Return(now.Add(5*time.Second)),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1003), nil),
	)

	_, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)

	n, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1003), n)
}

func TestBlockProvider_GetLatestBlock_ServesStaleOnError(t *testing.T) {
	tm := setupTest(t, defaultConfig)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(now),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil),
		tm.clock.EXPECT().Now().Return(now.Add(30*time.Second)),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(0), errors.New("connection refused")),
	)

	_, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)

	n, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), n)
}

func TestBlockProvider_GetLatestBlock_ErrorBeyondStaleWindow(t *testing.T) {
	tm := setupTest(t, defaultConfig)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(now),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil),
		tm.clock.EXPECT().Now().Return(now.Add(2*time.Minute)),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(0), errors.New("connection refused")),
	)

	_, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)

	_, err = tm.provider.GetLatestBlock(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid cache available")
}

func TestBlockProvider_GetLatestBlock_NeverMovesBackwards(t *testing.T) {
	tm := setupTest(t, defaultConfig)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	gomock.InOrder(
		tm.clock.EXPECT().Now().Return(now),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil),
		tm.clock.EXPECT().Now().Return(now.Add(10*time.Second)),
		tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(998), nil),
	)

	_, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)

	n, err := tm.provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), n)
}

func TestBlockProvider_GetConfirmedHead(t *testing.T) {
	tests := []struct {
		name          string
		latest        uint64
		confirmations uint64
		want          uint64
	}{
		{name: "no confirmations", latest: 500, confirmations: 0, want: 500},
		{name: "subtracts depth", latest: 500, confirmations: 12, want: 488},
		{name: "floors at zero", latest: 5, confirmations: 12, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTest(t, defaultConfig)
			defer tearDownTest(tm)

			ctx := context.Background()
			tm.clock.EXPECT().Now().Return(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
			tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(tt.latest, nil)

			got, err := tm.provider.GetConfirmedHead(ctx, tt.confirmations)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBlockProvider_GetBlockTimestamp_CachesForever(t *testing.T) {
	tm := setupTest(t, defaultConfig)
	defer tearDownTest(tm)

	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(42)).Return(ts, nil).Times(1)

	for i := 0; i < 3; i++ {
		got, err := tm.provider.GetBlockTimestamp(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, ts, got)
	}
}

func TestBlockProvider_GetBlockTimestamp_Error(t *testing.T) {
	tm := setupTest(t, defaultConfig)
	defer tearDownTest(tm)

	ctx := context.Background()
	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(42)).Return(time.Time{}, errors.New("boom"))

	_, err := tm.provider.GetBlockTimestamp(ctx, 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block 42")
}

func TestBlockProvider_GetBlockTimestamp_EvictsOldest(t *testing.T) {
	cfg := defaultConfig
	cfg.MaxTimestamps = 2
	tm := setupTest(t, cfg)
	defer tearDownTest(tm)

	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(1)).Return(base, nil).Times(2)
	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(2)).Return(base.Add(2*time.Second), nil).Times(1)
	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(3)).Return(base.Add(4*time.Second), nil).Times(1)

	for _, n := range []uint64{1, 2, 3} {
		_, err := tm.provider.GetBlockTimestamp(ctx, n)
		require.NoError(t, err)
	}

	// 2 and 3 are still cached, 1 was evicted and is fetched again
	_, err := tm.provider.GetBlockTimestamp(ctx, 3)
	require.NoError(t, err)
	_, err = tm.provider.GetBlockTimestamp(ctx, 2)
	require.NoError(t, err)
	_, err = tm.provider.GetBlockTimestamp(ctx, 1)
	require.NoError(t, err)
}
