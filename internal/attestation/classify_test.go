package attestation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/basebytes/receipt-indexer/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"), want: domain.ErrorKindTransient},
		{name: "ECONNREFUSED", err: errors.New("ECONNREFUSED"), want: domain.ErrorKindTransient},
		{name: "ENETUNREACH", err: errors.New("ENETUNREACH"), want: domain.ErrorKindTransient},
		{name: "nonce too low", err: errors.New("nonce too low"), want: domain.ErrorKindTransient},
		{name: "underpriced", err: errors.New("replacement transaction underpriced"), want: domain.ErrorKindTransient},
		{name: "gas", err: errors.New("intrinsic gas too low"), want: domain.ErrorKindTransient},
		{name: "wrapped nonce too low", err: fmt.Errorf("failed to submit attestation: %w", fmt.Errorf("failed to get nonce: %w", errors.New("nonce too low"))), want: domain.ErrorKindTransient},
		{name: "confirmation timeout", err: errors.New("timeout waiting for attestation tx 0x01 after 2m0s"), want: domain.ErrorKindTransient},
		{name: "network", err: errors.New("Network is unreachable"), want: domain.ErrorKindTransient},
		{name: "deadline", err: fmt.Errorf("failed to submit attestation: %w", context.DeadlineExceeded), want: domain.ErrorKindTransient},
		{name: "net error", err: fmt.Errorf("rpc: %w", &net.DNSError{Err: "no such host", Name: "rpc.example"}), want: domain.ErrorKindTransient},
		{name: "reverted", err: fmt.Errorf("%w: 0x01", domain.ErrAttestationReverted), want: domain.ErrorKindPermanent},
		{name: "invalid address", err: fmt.Errorf("%w: %q", domain.ErrInvalidAddress, "0xzz"), want: domain.ErrorKindPermanent},
		{name: "missing attested event", err: domain.ErrAttestedEventNotFound, want: domain.ErrorKindPermanent},
		{name: "still pending", err: fmt.Errorf("%w: 0x01", domain.ErrAttestationPending), want: domain.ErrorKindTransient},
		{name: "nonce call unauthorized", err: fmt.Errorf("failed to get nonce: %w", errors.New("401 Unauthorized: invalid api key")), want: domain.ErrorKindPermanent},
		{name: "tip cap method missing", err: fmt.Errorf("failed to suggest gas tip cap: %w", errors.New("the method eth_maxPriorityFeePerGas does not exist")), want: domain.ErrorKindPermanent},
		{name: "estimate reverted", err: fmt.Errorf("failed to submit attestation: %w", fmt.Errorf("failed to estimate gas: %w", errors.New("execution reverted: InvalidSchema()"))), want: domain.ErrorKindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestBackoffConfig_Delay(t *testing.T) {
	cfg := BackoffConfig{Initial: 5 * time.Second, Max: 5 * time.Minute, Multiplier: 2}

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 5 * time.Second},
		{attempts: 1, want: 10 * time.Second},
		{attempts: 2, want: 20 * time.Second},
		{attempts: 5, want: 160 * time.Second},
		{attempts: 6, want: 5 * time.Minute},
		{attempts: 30, want: 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempts_%d", tt.attempts), func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Delay(tt.attempts))
		})
	}
}

func TestIsHexHash(t *testing.T) {
	assert.True(t, isHexHash("0x"+"ab"+"00000000000000000000000000000000000000000000000000000000000000"))
	assert.True(t, isHexHash("ab00000000000000000000000000000000000000000000000000000000000000"))
	assert.False(t, isHexHash(""))
	assert.False(t, isHexHash("0x1234"))
	assert.False(t, isHexHash("0x"+"zz00000000000000000000000000000000000000000000000000000000000000"))
}
