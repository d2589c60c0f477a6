package merkle

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/basebytes/receipt-indexer/internal/domain"
)

// ReceiptFields are the receipt attributes committed to by the canonical hash
type ReceiptFields struct {
	ReceiptID  string
	Buyer      string
	Seller     string
	SkuID      string
	AmountUSD6 *big.Int
	Units      uint32
	TxHash     string
}

var receiptArguments = mustArguments("string", "address", "address", "string", "uint256", "uint32", "bytes32")

// ReceiptHash computes keccak256 of EncodeReceipt
func ReceiptHash(r ReceiptFields) (common.Hash, error) {
	encoded, err := EncodeReceipt(r)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// EncodeReceipt ABI encodes
// (string receiptId, address buyer, address seller, string skuId, uint256 amountUsd6, uint32 units, bytes32 txHash).
// This is also the data layout of the registered attestation schema.
// Short addresses and transaction hashes are right-padded with zeros to their fixed width.
func EncodeReceipt(r ReceiptFields) ([]byte, error) {
	buyer, err := canonicalAddress(r.Buyer)
	if err != nil {
		return nil, fmt.Errorf("buyer: %w", err)
	}
	seller, err := canonicalAddress(r.Seller)
	if err != nil {
		return nil, fmt.Errorf("seller: %w", err)
	}
	txHash, err := canonicalTxHash(r.TxHash)
	if err != nil {
		return nil, err
	}

	amount := r.AmountUSD6
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", domain.ErrInvalidAmount)
	}

	encoded, err := receiptArguments.Pack(r.ReceiptID, buyer, seller, r.SkuID, amount, r.Units, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}

	return encoded, nil
}

func canonicalAddress(address string) (common.Address, error) {
	digits, err := fixedWidthHex(address, common.AddressLength)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	}
	return common.HexToAddress(digits), nil
}

func canonicalTxHash(hash string) (common.Hash, error) {
	digits, err := fixedWidthHex(hash, common.HashLength)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %q", domain.ErrInvalidTxHash, hash)
	}
	return common.HexToHash(digits), nil
}

// fixedWidthHex strips the 0x prefix, lowercases and right-pads the digits with zeros to size bytes
func fixedWidthHex(value string, size int) (string, error) {
	digits := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X"))
	if len(digits) > size*2 {
		return "", fmt.Errorf("value longer than %d bytes", size)
	}
	for _, c := range digits {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("non hex character %q", c)
		}
	}
	return digits + strings.Repeat("0", size*2-len(digits)), nil
}

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}
