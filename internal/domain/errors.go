package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDecode       = errors.New("malformed message")
	ErrVoteRejected = errors.New("vote rejected")
	ErrNotFound     = errors.New("not found")
	ErrNoIdentity   = errors.New("client identity unavailable")
)

// RequestError is returned for failed request/response calls. StatusCode is
// zero when the request never produced an HTTP response.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: API error: %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
