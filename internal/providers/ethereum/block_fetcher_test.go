package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/mocks"
)

func TestEthereumBlockFetcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	clock := mocks.NewMockClock(ctrl)
	fetcher := NewEthereumBlockFetcher(eth, clock)
	ctx := context.Background()

	eth.EXPECT().HeaderByNumber(ctx, gomock.Nil()).Return(&types.Header{Number: big.NewInt(123)}, nil)
	latest, err := fetcher.FetchLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), latest)

	eth.EXPECT().HeaderByNumber(ctx, big.NewInt(100)).Return(&types.Header{Number: big.NewInt(100), Time: 1_700_000_000}, nil)
	clock.EXPECT().Unix(int64(1_700_000_000), int64(0)).Return(time.Unix(1_700_000_000, 0))
	ts, err := fetcher.FetchBlockTimestamp(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), ts)

	eth.EXPECT().HeaderByNumber(ctx, big.NewInt(101)).Return(nil, errors.New("header not found"))
	_, err = fetcher.FetchBlockTimestamp(ctx, 101)
	assert.ErrorContains(t, err, "block 101")
}
