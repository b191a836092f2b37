package types

import "errors"

// Error taxonomy for the dispatcher. Configuration and pool errors are fatal;
// the per-transaction errors are recovered locally and the run continues.
var (
	// ErrConfiguration covers startup failures: missing or empty key and
	// endpoint files, invalid selection modes or strategy names.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyPool is returned when selecting from a pool with no elements.
	ErrEmptyPool = errors.New("pool is empty")

	// ErrOutOfRange is returned for index selection past the pool size.
	ErrOutOfRange = errors.New("index out of range")

	// ErrConnection covers unreachable RPC endpoints and chain-state reads.
	ErrConnection = errors.New("connection error")

	// ErrSubmission covers rejected or timed out raw transaction submits.
	ErrSubmission = errors.New("submission error")

	// ErrReceiptTimeout is returned when a receipt does not appear in time.
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")

	// ErrInvalidParams is returned for inconsistent transaction parameters,
	// e.g. a legacy gas price combined with EIP-1559 fee caps.
	ErrInvalidParams = errors.New("invalid transaction params")

	// ErrUnsupportedFeature is returned when a strategy needs a feature the
	// target chain does not provide, e.g. blob transactions pre-Cancun.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrSigning is returned when the signer rejects a payload.
	ErrSigning = errors.New("signing error")
)
