package insights

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when a command arrives from a chat other than
// the single configured one.
var ErrUnauthorized = errors.New("unauthorized chat")

// ErrStorageUnavailable is returned when the storage capability is not
// configured or requires interactive authorization that the current context
// cannot run.
var ErrStorageUnavailable = errors.New("storage unavailable")

// FetchError wraps a failure reaching the source message feed.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch messages: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AnalysisError wraps a failure of the AI provider, carrying the provider's
// reported message when one was present.
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analyze: %v", e.Err)
	}
	return fmt.Sprintf("analyze: %s", e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
