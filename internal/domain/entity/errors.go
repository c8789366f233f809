package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions the UI must be able to name.
var (
	// ErrWalletUnavailable means no wallet transport was detected at all.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrNoAccounts means the wallet granted access but exposed zero accounts.
	ErrNoAccounts = errors.New("wallet exposed no accounts")
)

// ConfigurationError reports a missing contract address or facet ABI for the
// active chain. It is never retried; the UI explains "unsupported network".
type ConfigurationError struct {
	ChainID uint64
	Facet   Facet
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Facet != "" {
		return fmt.Sprintf("configuration error for facet %s on chain %d: %s", e.Facet, e.ChainID, e.Reason)
	}
	return fmt.Sprintf("configuration error on chain %d: %s", e.ChainID, e.Reason)
}

// TransactionRejectedError means the user declined the signature prompt.
// Kept distinct from WriteFailure so the UI can say "you rejected this".
type TransactionRejectedError struct {
	Op string
}

func (e *TransactionRejectedError) Error() string {
	return fmt.Sprintf("transaction rejected by user: %s", e.Op)
}

// WriteFailure means a submitted transaction reverted or failed to mine.
// Carries whatever revert reason the node exposed. Never retried blindly.
type WriteFailure struct {
	Op     string
	Reason string
	Err    error
}

func (e *WriteFailure) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("write failed: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("write failed: %s: %v", e.Op, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }
