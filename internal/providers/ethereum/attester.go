package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
)

// gasLimitBufferPercent is added on top of the estimated gas
const gasLimitBufferPercent = 20

// Attester submits attestations to the EAS contract and tracks their transactions
//
//go:generate mockgen -source=attester.go -destination=../../mocks/attester.go -package=mocks -mock_names=Attester=MockAttester
type Attester interface {
	// ChainID returns the chain id reported by the RPC endpoint
	ChainID(ctx context.Context) (*big.Int, error)

	// Address returns the attester account address
	Address() common.Address

	// Submit signs and broadcasts an attest transaction, returning its hash
	Submit(ctx context.Context, req domain.AttestationRequest) (common.Hash, error)

	// WaitForAttestation waits until the transaction is mined and extracts the attestation uid
	WaitForAttestation(ctx context.Context, txHash common.Hash) (*domain.AttestationResult, error)

	// LookupAttestation checks a previously broadcast transaction once.
	// It returns nil without error only when the transaction is unknown to the node, and
	// domain.ErrAttestationPending while the node knows it but has no receipt for it.
	LookupAttestation(ctx context.Context, txHash common.Hash) (*domain.AttestationResult, error)
}

// AttesterConfig holds the configuration of the EAS attester
type AttesterConfig struct {
	EASAddress     string
	PrivateKey     string
	ChainID        *big.Int
	ConfirmTimeout time.Duration
	ReceiptPoll    time.Duration
}

type attester struct {
	client         adapter.EthClient
	clock          adapter.Clock
	eas            common.Address
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	confirmTimeout time.Duration
	receiptPoll    time.Duration

	// mu serializes nonce allocation and broadcast on the signing key
	mu sync.Mutex
}

// NewAttester creates an EAS attester signing with the configured private key
func NewAttester(cfg AttesterConfig, client adapter.EthClient, clock adapter.Clock) (Attester, error) {
	if !common.IsHexAddress(cfg.EASAddress) {
		return nil, fmt.Errorf("eas address: %w: %q", domain.ErrInvalidAddress, cfg.EASAddress)
	}
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	if cfg.ReceiptPoll <= 0 {
		cfg.ReceiptPoll = 2 * time.Second
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 2 * time.Minute
	}

	return &attester{
		client:         client,
		clock:          clock,
		eas:            common.HexToAddress(cfg.EASAddress),
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        new(big.Int).Set(cfg.ChainID),
		confirmTimeout: cfg.ConfirmTimeout,
		receiptPoll:    cfg.ReceiptPoll,
	}, nil
}

func (a *attester) ChainID(ctx context.Context) (*big.Int, error) {
	return a.client.ChainID(ctx)
}

func (a *attester) Address() common.Address {
	return a.from
}

// Submit builds a dynamic fee attest transaction, estimates its gas and broadcasts it
func (a *attester) Submit(ctx context.Context, req domain.AttestationRequest) (common.Hash, error) {
	if req.Schema == (common.Hash{}) {
		return common.Hash{}, domain.ErrMissingSchemaUID
	}

	input, err := easABI.Pack("attest", easAttestationRequest{
		Schema: req.Schema,
		Data: easAttestationRequestData{
			Recipient:      req.Recipient,
			ExpirationTime: 0,
			Revocable:      false,
			RefUID:         [32]byte{},
			Data:           req.Data,
			Value:          big.NewInt(0),
		},
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack attest call: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	nonce, err := a.client.PendingNonceAt(ctx, a.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	tipCap, err := a.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to suggest gas tip cap: %w", err)
	}

	head, err := a.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get latest header: %w", err)
	}

	// feeCap = 2 * baseFee + tip, so the tx stays includable across a few full blocks
	feeCap := new(big.Int).Set(tipCap)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := a.client.EstimateGas(ctx, ethereum.CallMsg{
		From:      a.from,
		To:        &a.eas,
		GasFeeCap: feeCap,
		GasTipCap: tipCap,
		Value:     big.NewInt(0),
		Data:      input,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}
	gas += gas * gasLimitBufferPercent / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   a.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &a.eas,
		Value:     big.NewInt(0),
		Data:      input,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(a.chainID), a.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign attestation tx: %w", err)
	}

	if err := a.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send attestation tx: %w", err)
	}

	logger.InfoCtx(ctx, "Attestation transaction sent",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))

	return signed.Hash(), nil
}

// WaitForAttestation polls the transaction receipt until it is mined or the confirm timeout elapses
func (a *attester) WaitForAttestation(ctx context.Context, txHash common.Hash) (*domain.AttestationResult, error) {
	deadline := a.clock.Now().Add(a.confirmTimeout)

	for {
		result, err := a.LookupAttestation(ctx, txHash)
		if err != nil && !errors.Is(err, domain.ErrAttestationPending) {
			return nil, err
		}
		if result != nil {
			return result, nil
		}

		if !a.clock.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: timeout waiting for attestation tx %s after %s",
				domain.ErrAttestationPending, txHash.Hex(), a.confirmTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-a.clock.After(a.receiptPoll):
		}
	}
}

// LookupAttestation fetches the transaction receipt once and decodes the Attested event
func (a *attester) LookupAttestation(ctx context.Context, txHash common.Hash) (*domain.AttestationResult, error) {
	receipt, err := a.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get attestation tx receipt: %w", err)
		}

		_, isPending, err := a.client.TransactionByHash(ctx, txHash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get attestation tx: %w", err)
		}
		// Known without a receipt: still in the mempool or mined after the receipt query
		return nil, fmt.Errorf("%w: tx %s, pending %t", domain.ErrAttestationPending, txHash.Hex(), isPending)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", domain.ErrAttestationReverted, txHash.Hex())
	}

	uid, err := a.attestedUID(receipt)
	if err != nil {
		return nil, err
	}

	var blockNumber uint64
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}

	return &domain.AttestationResult{
		UID:         uid,
		TxHash:      txHash,
		BlockNumber: blockNumber,
		ConfirmedAt: a.clock.Now(),
	}, nil
}

// attestedUID extracts the uid from the Attested event emitted by the EAS contract
func (a *attester) attestedUID(receipt *types.Receipt) (common.Hash, error) {
	for _, vLog := range receipt.Logs {
		if vLog == nil || vLog.Address != a.eas || len(vLog.Topics) == 0 || vLog.Topics[0] != AttestedEventSignature {
			continue
		}
		if len(vLog.Data) < common.HashLength {
			continue
		}
		return common.BytesToHash(vLog.Data[:common.HashLength]), nil
	}
	return common.Hash{}, fmt.Errorf("%w: %s", domain.ErrAttestedEventNotFound, receipt.TxHash.Hex())
}
