package session

import "errors"

// ErrEmptyThreadID is returned when a session is requested without a thread id.
var ErrEmptyThreadID = errors.New("thread id cannot be empty")
