package tasklist

import "errors"

var (
	ErrNotFound    = errors.New("task not found")
	ErrPlaceholder = errors.New("task has not been saved yet")
	ErrInProgress  = errors.New("operation in progress")
	ErrClosed      = errors.New("task list closed")
)

// RemoteError is a rejected or failed backend call. The local list has
// already been rolled back when it is returned.
type RemoteError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
