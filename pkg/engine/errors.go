package engine

import "fmt"

// BackendError wraps a failure from the model backend after retries and
// fallbacks are exhausted. The conversation buffer is left intact so the
// caller can retry the turn.
type BackendError struct {
	Model string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s failed: %v", e.Model, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// UnknownToolError reports a tool call naming a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}
