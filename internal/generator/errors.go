package generator

import "fmt"

// ValidationError rejects a query before any generation call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// GenerationFailure is returned when the backend could not produce a usable
// result within the retry budget. Err is the last attempt's error and may
// be a *timeline.SchemaViolation.
type GenerationFailure struct {
	Attempts int
	Err      error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }
