package domain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainBaseMainnet     Chain = "eip155:8453"
	ChainBaseSepolia     Chain = "eip155:84532"
	ChainEthereumMainnet Chain = "eip155:1"
)

// ChainFromID builds the CAIP-2 identifier of an EVM chain id
func ChainFromID(chainID int64) Chain {
	return Chain(fmt.Sprintf("eip155:%d", chainID))
}

// ID returns the numeric EVM chain id encoded in the CAIP-2 identifier
func (c Chain) ID() (int64, error) {
	namespace, reference, ok := strings.Cut(string(c), ":")
	if !ok || namespace != "eip155" {
		return 0, fmt.Errorf("unsupported chain %q", c)
	}
	return strconv.ParseInt(reference, 10, 64)
}

// ChainIDHex renders a chain id the way it is stored on attested receipts, e.g. 0x14a34
func ChainIDHex(chainID *big.Int) string {
	return "0x" + chainID.Text(16)
}

// AttestationStatus is the lifecycle state of a receipt attestation
type AttestationStatus string

const (
	AttestationStatusPending   AttestationStatus = "pending"
	AttestationStatusAttesting AttestationStatus = "attesting"
	AttestationStatusOnchain   AttestationStatus = "onchain"
	AttestationStatusSkipped   AttestationStatus = "skipped"
)

// Terminal reports whether no further transition is allowed out of the status
func (s AttestationStatus) Terminal() bool {
	return s == AttestationStatusOnchain || s == AttestationStatusSkipped
}

// ErrorKind classifies why an attestation attempt failed
type ErrorKind string

const (
	// ErrorKindTransient failures are retried automatically after a backoff
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindPermanent failures wait for an operator to requeue or skip the receipt
	ErrorKindPermanent ErrorKind = "permanent"
)

// AnchorStatus is the outcome of a daily anchor run
type AnchorStatus string

const (
	AnchorStatusCreated    AnchorStatus = "created"
	AnchorStatusExists     AnchorStatus = "exists"
	AnchorStatusNoReceipts AnchorStatus = "no_receipts"
)

// PaymentEvent is a decoded PaymentReceived log
type PaymentEvent struct {
	Chain          Chain
	Buyer          string
	Seller         string
	SkuID          string
	AmountUSD6     *big.Int
	Units          uint32
	Rights         uint8
	TxHash         string
	LogIndex       uint
	BlockNumber    uint64
	BlockTimestamp time.Time
}

// Less orders events by block number then log index
func (e PaymentEvent) Less(other PaymentEvent) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	return e.LogIndex < other.LogIndex
}

// AttestationRequest holds the fields the worker supplies for one attestation
type AttestationRequest struct {
	Schema    common.Hash
	Recipient common.Address
	Data      []byte
}

// AttestationResult is the outcome of a mined attestation transaction
type AttestationResult struct {
	UID         common.Hash
	TxHash      common.Hash
	BlockNumber uint64
	ConfirmedAt time.Time
}

// NewReceiptID generates a receipt identifier: rcpt_ followed by 24 hex characters
func NewReceiptID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return RECEIPT_ID_PREFIX + id[:24]
}

// AttestationKey returns the idempotency key held while a receipt is being attested
func AttestationKey(receiptID string) string {
	return ATTESTATION_KEY_PREFIX + receiptID
}

// NormalizeAddress lowercases a 20-byte hex address and ensures the 0x prefix
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// DecodeSkuID renders a bytes32 SKU identifier as text.
// Printable UTF-8 content is returned with trailing NUL padding removed,
// anything else falls back to its 0x-prefixed hex form.
func DecodeSkuID(raw common.Hash) string {
	trimmed := strings.TrimRight(string(raw.Bytes()), "\x00")
	if trimmed == "" || !utf8.ValidString(trimmed) || strings.ContainsRune(trimmed, 0) {
		return raw.Hex()
	}
	return trimmed
}

// ParseUSD6 parses a 6-decimal fixed point USD amount stored as a decimal string
func ParseUSD6(amount string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return value, nil
}
