package workflow

import "errors"

var (
	ErrEmptyBatchName     = errors.New("batch name is required")
	ErrEmptySelection     = errors.New("select at least one request")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrNotInBatchMode     = errors.New("batch mode is not active")
	ErrDeclined           = errors.New("action not confirmed")
	ErrInvalidTarget      = errors.New("status must be todo, completed or duplicate")
	ErrEditorClosed       = errors.New("editor is closed")
)

// Notice is an operator facing failure. Message is safe to show as is and
// Err keeps the underlying cause.
type Notice struct {
	Message string
	Err     error
}

func (n *Notice) Error() string {
	return n.Message
}

func (n *Notice) Unwrap() error {
	return n.Err
}

func notice(message string, err error) error {
	return &Notice{Message: message, Err: err}
}
