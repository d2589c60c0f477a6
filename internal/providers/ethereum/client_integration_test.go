package ethereum

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/block"
	"github.com/basebytes/receipt-indexer/internal/domain"
)

// TestFetchPayments_Integration scans a live router deployment.
// It needs BASE_RPC_URL, ROUTER_ADDRESS and PAYMENT_BLOCK (a block holding at least one payment).
func TestFetchPayments_Integration(t *testing.T) {
	rpcURL := os.Getenv("BASE_RPC_URL")
	router := os.Getenv("ROUTER_ADDRESS")
	paymentBlock, _ := strconv.ParseUint(os.Getenv("PAYMENT_BLOCK"), 10, 64)
	if rpcURL == "" || router == "" || paymentBlock == 0 {
		t.Skip("Skipping integration test: BASE_RPC_URL, ROUTER_ADDRESS or PAYMENT_BLOCK not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, rpcURL)
	require.NoError(t, err)
	t.Cleanup(func() { ethClient.Close() })

	chainID, err := ethClient.ChainID(ctx)
	require.NoError(t, err)

	client, err := NewPaymentClient(domain.ChainFromID(chainID.Int64()), router, ethClient)
	require.NoError(t, err)

	events, err := client.FetchPayments(ctx, paymentBlock, paymentBlock)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	clock := adapter.NewClock()
	provider := block.NewBlockProvider(NewEthereumBlockFetcher(ethClient, clock), block.Config{
		TTL:         5 * time.Second,
		StaleWindow: 30 * time.Second,
	}, clock)

	ts, err := provider.GetBlockTimestamp(ctx, paymentBlock)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())

	for _, e := range events {
		assert.Equal(t, paymentBlock, e.BlockNumber)
		assert.NotEmpty(t, e.SkuID)
		assert.Positive(t, e.AmountUSD6.Sign())
	}
}
