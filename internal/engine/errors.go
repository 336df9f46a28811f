// Package engine provides the conversation orchestration core: transcript
// types, the tool registry contract, and the tool-call loop state machine.
package engine

import (
	"errors"
	"fmt"
)

// ErrLoopLimitExceeded terminates a run that exceeded the configured number
// of model round-trips for a single user turn.
var ErrLoopLimitExceeded = errors.New("model round-trip limit exceeded")

// ModelServiceError wraps a network or service failure from the model call.
// It is the only fault besides ErrLoopLimitExceeded that terminates a run.
type ModelServiceError struct {
	Err error
}

func (e *ModelServiceError) Error() string {
	return fmt.Sprintf("model service call failed: %v", e.Err)
}

func (e *ModelServiceError) Unwrap() error {
	return e.Err
}

// IsModelServiceError reports whether err originated from a model service call.
func IsModelServiceError(err error) bool {
	var mse *ModelServiceError
	return errors.As(err, &mse)
}
