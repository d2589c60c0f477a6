package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// DEFAULT_EAS_ADDRESS is the EAS predeploy on OP-stack chains (Base, Base Sepolia)
	DEFAULT_EAS_ADDRESS = "0x4200000000000000000000000000000000000021"

	// RECEIPT_ID_PREFIX prefixes every receipt identifier
	RECEIPT_ID_PREFIX = "rcpt_"

	// ATTESTATION_KEY_PREFIX prefixes the idempotency key held while a receipt is being attested
	ATTESTATION_KEY_PREFIX = "attest:"

	// USD6_DECIMALS is the number of decimals of the fixed point USD amounts emitted by the router
	USD6_DECIMALS = 6
)
