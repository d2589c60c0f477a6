package attestation

import (
	"context"
	"errors"
	"net"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/basebytes/receipt-indexer/internal/domain"
)

// transientPattern matches RPC and broadcast failures that clear up on their own
var transientPattern = regexp.MustCompile(`(?i)network|timeout|timed out|connection|econnrefused|enetunreach|nonce|gas|underpriced`)

// Classify decides whether a failed attestation attempt is retried automatically
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrAttestationPending) {
		return domain.ErrorKindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ErrorKindTransient
	}

	// Wrapper text names the failing call, only the remote message decides the kind
	if transientPattern.MatchString(rootCause(err).Error()) {
		return domain.ErrorKindTransient
	}

	return domain.ErrorKindPermanent
}

// rootCause returns the innermost error of a single-wrap chain
func rootCause(err error) error {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err
		}
		err = inner
	}
}

// BackoffConfig holds the per-receipt retry schedule of transient failures
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Delay returns the wait before the next attempt of a receipt that has already failed attempts times
func (c BackoffConfig) Delay(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.Initial
	b.MaxInterval = c.Max
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 0; i < attempts; i++ {
		delay = b.NextBackOff()
	}
	return delay
}
