package services

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrStoreUnavailable means the Firestore client was never initialized,
	// usually because the service-account env vars are missing. This is a
	// configuration failure, not something a retry fixes.
	ErrStoreUnavailable = errors.New("order store not initialized, check firebase credentials")
)

// ValidationError carries a client-facing reason for a 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// GatewayError wraps a failed or unusable payment gateway exchange.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
