package core

import "errors"

var (
	// ErrConfig marks configuration problems; these abort startup
	ErrConfig = errors.New("configuration error")

	// ErrNotFound is returned by lookups that found nothing
	ErrNotFound = errors.New("not found")

	// ErrResolution marks a directive name that could not be matched to a user or message
	ErrResolution = errors.New("directive target not resolved")

	// ErrSend marks a failed outgoing message
	ErrSend = errors.New("send failed")
)

// PipelineError carries the stage and prompt of a failed trigger to the top-level log
type PipelineError struct {
	Stage  string
	Prompt string
	Err    error
}

func (e *PipelineError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
