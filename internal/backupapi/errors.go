package backupapi

import (
	"errors"
	"fmt"
)

// ErrJobNotFound indicates the service has no status for the requested job id.
// Callers treat this as an ambiguous snapshot, never as a retry candidate.
var ErrJobNotFound = errors.New("job not found")

// AuthError indicates session establishment failed. Fatal to the whole run.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }

func (e *AuthError) Unwrap() error { return e.Err }

// InventoryError indicates the job inventory could not be listed. Fatal to the
// whole run.
type InventoryError struct {
	Err error
}

func (e *InventoryError) Error() string { return fmt.Sprintf("listing jobs failed: %v", e.Err) }

func (e *InventoryError) Unwrap() error { return e.Err }
