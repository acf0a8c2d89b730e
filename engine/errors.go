package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
)

var (
	// ErrNetwork is a transport failure or timeout. Retryable by the caller.
	ErrNetwork = errors.New("engine network error")
	// ErrAuth is a rejected or expired API credential (HTTP 401/403).
	ErrAuth = errors.New("engine authentication error")
	// ErrNotFound means the referenced remote workflow does not exist.
	ErrNotFound = errors.New("engine workflow not found")
	// ErrValidationRejected means the engine refused the workflow body.
	ErrValidationRejected = errors.New("engine rejected workflow")
	// ErrRemote is any other non-2xx response.
	ErrRemote = errors.New("engine remote error")
)

// Error describes a failed engine call. Kind is one of the sentinels above.
type Error struct {
	Kind   error
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status, Body: string(body)}
	switch {
	case status == 401 || status == 403:
		e.Kind = ErrAuth
	case status == 404:
		e.Kind = ErrNotFound
	default:
		e.Kind = ErrRemote
	}
	return e
}

// waitError classifies a call that never ran because its sequencer slot
// was not reached in time.
func waitError(op string, err error) error {
	var e *Error
	if err == nil || errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: ErrNetwork, Op: op, Err: err}
	}
	return err
}

// ErrorKind names the failure class of err for reports and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "NetworkError"
	case errors.Is(err, ErrAuth):
		return "AuthError"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrValidationRejected):
		return "ValidationRejected"
	case errors.Is(err, ErrRemote):
		return "RemoteError"
	case errors.Is(err, model.ErrEmptyGraph):
		return "EmptyGraph"
	case errors.Is(err, model.ErrDuplicateNodeID):
		return "DuplicateNodeId"
	case errors.Is(err, model.ErrDanglingConnection):
		return "DanglingConnection"
	case errors.Is(err, model.ErrMalformedGraph), errors.Is(err, model.ErrInvalidNode):
		return "MalformedGraph"
	default:
		return "InternalError"
	}
}
