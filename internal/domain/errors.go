package domain

import "errors"

var (
	// ErrInvalidAddress is returned when an address is not a hex string of at most 20 bytes
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidTxHash is returned when a transaction hash is not a hex string of at most 32 bytes
	ErrInvalidTxHash = errors.New("invalid transaction hash")

	// ErrInvalidAmount is returned when a USD amount cannot be parsed as a non-negative integer
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingSchemaUID is returned when the attestation schema identifier is missing or zero
	ErrMissingSchemaUID = errors.New("attestation schema uid is missing")

	// ErrChainIDMismatch is returned when the RPC endpoint reports an unexpected chain id
	ErrChainIDMismatch = errors.New("chain id mismatch")

	// ErrReceiptNotFound is returned when a receipt does not exist
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrProofNotFound is returned when a receipt has not been included in any anchor yet
	ErrProofNotFound = errors.New("proof not found")

	// ErrInvalidTransition is returned when an attestation status change is not allowed
	ErrInvalidTransition = errors.New("invalid attestation status transition")

	// ErrAttestationReverted is returned when the attestation transaction was mined but failed
	ErrAttestationReverted = errors.New("attestation transaction reverted")
	// ErrAttestationPending is returned when a broadcast attestation transaction is known but not mined yet
	ErrAttestationPending = errors.New("attestation transaction still pending")

	// ErrAttestedEventNotFound is returned when a mined attestation transaction carries no Attested event
	ErrAttestedEventNotFound = errors.New("attested event not found in transaction receipt")

	// ErrPollInFlight is returned when a poll is requested while another one is still running
	ErrPollInFlight = errors.New("poll already in flight")
)
