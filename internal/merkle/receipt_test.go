package merkle_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/merkle"
)

func sampleReceipt() merkle.ReceiptFields {
	return merkle.ReceiptFields{
		ReceiptID:  "rcpt_0123456789abcdef01234567",
		Buyer:      "0x1111111111111111111111111111111111111111",
		Seller:     "0x2222222222222222222222222222222222222222",
		SkuID:      "dataset:weather:v1",
		AmountUSD6: big.NewInt(200000),
		Units:      1,
		TxHash:     "0x" + strings.Repeat("ab", 32),
	}
}

func TestReceiptHash_KnownVector(t *testing.T) {
	hash, err := merkle.ReceiptHash(sampleReceipt())
	require.NoError(t, err)

	assert.Equal(t, common.HexToHash("0x497998818df27a04aec59d5dd5d430c3e056e2045640974aff058889c3b81453"), hash)
}

func TestReceiptHash_Deterministic(t *testing.T) {
	first, err := merkle.ReceiptHash(sampleReceipt())
	require.NoError(t, err)

	upper := sampleReceipt()
	upper.TxHash = "0x" + strings.Repeat("AB", 32)
	upper.Buyer = strings.ToUpper(upper.Buyer[2:])
	second, err := merkle.ReceiptHash(upper)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReceiptHash_FieldSensitivity(t *testing.T) {
	base, err := merkle.ReceiptHash(sampleReceipt())
	require.NoError(t, err)

	mutations := map[string]func(*merkle.ReceiptFields){
		"receipt id": func(r *merkle.ReceiptFields) { r.ReceiptID = "rcpt_other" },
		"buyer":      func(r *merkle.ReceiptFields) { r.Buyer = "0x3333333333333333333333333333333333333333" },
		"seller":     func(r *merkle.ReceiptFields) { r.Seller = "0x3333333333333333333333333333333333333333" },
		"sku":        func(r *merkle.ReceiptFields) { r.SkuID = "dataset:weather:v2" },
		"amount":     func(r *merkle.ReceiptFields) { r.AmountUSD6 = big.NewInt(200001) },
		"units":      func(r *merkle.ReceiptFields) { r.Units = 2 },
		"tx hash":    func(r *merkle.ReceiptFields) { r.TxHash = "0x" + strings.Repeat("cd", 32) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := sampleReceipt()
			mutate(&r)
			hash, err := merkle.ReceiptHash(r)
			require.NoError(t, err)
			assert.NotEqual(t, base, hash)
		})
	}
}

func TestReceiptHash_PadsShortValues(t *testing.T) {
	short := merkle.ReceiptFields{
		ReceiptID:  "rcpt_short",
		Buyer:      "0x1234",
		Seller:     "0xABCD",
		SkuID:      "sku",
		AmountUSD6: big.NewInt(5),
		Units:      2,
		TxHash:     "0xdead",
	}
	full := merkle.ReceiptFields{
		ReceiptID:  "rcpt_short",
		Buyer:      "0x1234000000000000000000000000000000000000",
		Seller:     "0xabcd000000000000000000000000000000000000",
		SkuID:      "sku",
		AmountUSD6: big.NewInt(5),
		Units:      2,
		TxHash:     "dead" + strings.Repeat("0", 60),
	}

	shortHash, err := merkle.ReceiptHash(short)
	require.NoError(t, err)
	fullHash, err := merkle.ReceiptHash(full)
	require.NoError(t, err)

	assert.Equal(t, fullHash, shortHash)
	assert.Equal(t, common.HexToHash("0x669c5d144abb1ce9f7f740397428a591e9d5a6ae64ec36d649e10ccf4dea3615"), shortHash)
}

func TestReceiptHash_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*merkle.ReceiptFields)
		err    error
	}{
		{
			name:   "address too long",
			mutate: func(r *merkle.ReceiptFields) { r.Buyer = "0x" + strings.Repeat("1", 42) },
			err:    domain.ErrInvalidAddress,
		},
		{
			name:   "address not hex",
			mutate: func(r *merkle.ReceiptFields) { r.Seller = "0xnothex" },
			err:    domain.ErrInvalidAddress,
		},
		{
			name:   "tx hash too long",
			mutate: func(r *merkle.ReceiptFields) { r.TxHash = "0x" + strings.Repeat("a", 66) },
			err:    domain.ErrInvalidTxHash,
		},
		{
			name:   "tx hash not hex",
			mutate: func(r *merkle.ReceiptFields) { r.TxHash = "0xghij" },
			err:    domain.ErrInvalidTxHash,
		},
		{
			name:   "negative amount",
			mutate: func(r *merkle.ReceiptFields) { r.AmountUSD6 = big.NewInt(-1) },
			err:    domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleReceipt()
			tt.mutate(&r)
			_, err := merkle.ReceiptHash(r)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
