package extract

import "fmt"

// InferenceError represents a completion-service failure. It is not
// retried; the job records it as a terminal failure.
type InferenceError struct {
	Message string
	Cause   error
}

func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("inference failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("inference failed: %s", e.Message)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}

// MalformedOutputError means the completion service returned text that
// could not be parsed as JSON even after stripping code fences.
type MalformedOutputError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *MalformedOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed model output: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed model output: %s", e.Message)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}
