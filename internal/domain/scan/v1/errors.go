package v1

import (
	"fmt"

	"github.com/muhammadchandra19/market-signal/pkg/errors"
)

var (
	// ErrEmptyInput is returned when a segment has no rows to process.
	ErrEmptyInput = errors.NewErrorDetails("no rows to process", string(errors.EmptyInputError), "")
	// ErrStoreUnavailable is returned when the trade or bar store fails a call.
	ErrStoreUnavailable = errors.NewErrorDetails("store unavailable", string(errors.StoreUnavailableError), "")
	// ErrCancelled is returned when a scan is aborted at a chunk boundary.
	ErrCancelled = errors.NewErrorDetails("scan cancelled", string(errors.ScanCancelledError), "")
)

// ScanError reports the offset a scan stopped at. Every row before Offset has
// been consumed, so the scan can resume from there.
type ScanError struct {
	Offset int
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan stopped at offset %d: %v", e.Offset, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// StoreFailure wraps a collaborator error so it matches ErrStoreUnavailable.
func StoreFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
