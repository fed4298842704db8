package usecases

import (
	"errors"
	"fmt"
)

// FetchError wraps a failed directory fetch. Transient failures are marked
// retryable; callers keep whatever they already rendered and may try again.
type FetchError struct {
	Source    string
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch source %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a fetch failure worth retrying.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable
}

// ErrUnknownSource is returned for operations against a source that was
// never selected.
var ErrUnknownSource = errors.New("source not selected")
