package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
)

// filterLogsTimeout bounds a whole FetchPayments call including step reductions
const filterLogsTimeout = time.Minute

// PaymentClient reads router payment events from the chain
//
//go:generate mockgen -source=client.go -destination=../../mocks/payment_client.go -package=mocks -mock_names=PaymentClient=MockPaymentClient
type PaymentClient interface {
	// FetchPayments returns the PaymentReceived events emitted by the router in [fromBlock, toBlock].
	// Events are returned in log order but without block timestamps.
	FetchPayments(ctx context.Context, fromBlock, toBlock uint64) ([]domain.PaymentEvent, error)
}

type paymentClient struct {
	chainID domain.Chain
	router  common.Address
	client  adapter.EthClient
}

// NewPaymentClient creates a payment client for the router contract
func NewPaymentClient(chainID domain.Chain, routerAddress string, client adapter.EthClient) (PaymentClient, error) {
	if !common.IsHexAddress(routerAddress) {
		return nil, fmt.Errorf("router address: %w: %q", domain.ErrInvalidAddress, routerAddress)
	}
	return &paymentClient{
		chainID: chainID,
		router:  common.HexToAddress(routerAddress),
		client:  client,
	}, nil
}

// FetchPayments fetches and decodes router payment logs within the block range
func (c *paymentClient) FetchPayments(ctx context.Context, fromBlock, toBlock uint64) ([]domain.PaymentEvent, error) {
	if fromBlock > toBlock {
		return nil, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, filterLogsTimeout)
	defer cancel()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.router},
		Topics:    [][]common.Hash{{PaymentReceivedEventSignature}},
	}

	logs, err := c.getLogsWithRetry(timeoutCtx, query, toBlock-fromBlock+1)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for range %d-%d: %w", fromBlock, toBlock, err)
	}

	events := make([]domain.PaymentEvent, 0, len(logs))
	for _, vLog := range logs {
		if vLog.Removed {
			continue
		}

		event, err := ParsePaymentLog(c.chainID, vLog)
		if err != nil {
			// A log that fails to decode now will never decode, skipping keeps the range moving
			logger.ErrorCtx(ctx, fmt.Errorf("failed to decode payment log: %w", err),
				zap.String("tx_hash", vLog.TxHash.Hex()),
				zap.Uint("log_index", vLog.Index),
				zap.Uint64("block_number", vLog.BlockNumber))
			continue
		}
		events = append(events, *event)
	}

	return events, nil
}

// getLogsWithRetry walks the query range in chunks of stepSize blocks,
// halving the step whenever the provider rejects a chunk for returning too many results
func (c *paymentClient) getLogsWithRetry(ctx context.Context, query ethereum.FilterQuery, stepSize uint64) ([]types.Log, error) {
	currentStepSize := stepSize

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(query.FromBlock)

	for currentFrom.Cmp(query.ToBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(currentStepSize-1))
		if currentTo.Cmp(query.ToBlock) > 0 {
			currentTo.Set(query.ToBlock)
		}

		queryCopy := query
		queryCopy.FromBlock = new(big.Int).Set(currentFrom)
		queryCopy.ToBlock = new(big.Int).Set(currentTo)

		logs, err := c.client.FilterLogs(ctx, queryCopy)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom.SetUint64(currentTo.Uint64() + 1)
			continue
		}

		if !isTooManyResultsError(err) || currentStepSize == 1 {
			return nil, err
		}

		currentStepSize = currentStepSize / 2

		logger.WarnCtx(ctx, "Too many results, reducing step size",
			zap.Uint64("oldStepSize", currentStepSize*2),
			zap.Uint64("newStepSize", currentStepSize),
			zap.Uint64("fromBlock", currentFrom.Uint64()),
			zap.Uint64("toBlock", currentTo.Uint64()))
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum") ||
		strings.Contains(errStr, "block range")
}

// ParsePaymentLog decodes a router PaymentReceived log
func ParsePaymentLog(chainID domain.Chain, vLog types.Log) (*domain.PaymentEvent, error) {
	if len(vLog.Topics) != 4 || vLog.Topics[0] != PaymentReceivedEventSignature {
		return nil, fmt.Errorf("not a PaymentReceived log: %d topics", len(vLog.Topics))
	}

	values, err := routerABI.Unpack("PaymentReceived", vLog.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack PaymentReceived data: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected PaymentReceived field count %d", len(values))
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected amountUsd6 type %T", values[0])
	}
	units, ok := values[1].(uint32)
	if !ok {
		return nil, fmt.Errorf("unexpected units type %T", values[1])
	}
	rights, ok := values[2].(uint8)
	if !ok {
		return nil, fmt.Errorf("unexpected rights type %T", values[2])
	}

	return &domain.PaymentEvent{
		Chain:       chainID,
		Buyer:       strings.ToLower(common.BytesToAddress(vLog.Topics[1].Bytes()).Hex()),
		Seller:      strings.ToLower(common.BytesToAddress(vLog.Topics[2].Bytes()).Hex()),
		SkuID:       domain.DecodeSkuID(vLog.Topics[3]),
		AmountUSD6:  amount,
		Units:       units,
		Rights:      rights,
		TxHash:      strings.ToLower(vLog.TxHash.Hex()),
		LogIndex:    vLog.Index,
		BlockNumber: vLog.BlockNumber,
	}, nil
}
