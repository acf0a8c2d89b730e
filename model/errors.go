package model

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedGraph     = errors.New("malformed workflow graph")
	ErrEmptyGraph         = errors.New("workflow graph has no nodes")
	ErrDuplicateNodeID    = errors.New("duplicate node identifier")
	ErrDanglingConnection = errors.New("connection references unknown node")
	ErrInvalidNode        = errors.New("invalid node")
)

// GraphError is returned by Parse and Validate. Kind is one of the Err*
// sentinels above so callers can match with errors.Is.
type GraphError struct {
	Kind     error
	Workflow string
	Node     string
	Detail   string
}

func (e *GraphError) Error() string {
	msg := e.Kind.Error()
	if e.Workflow != "" {
		msg = fmt.Sprintf("%s: workflow %q", msg, e.Workflow)
	}
	if e.Node != "" {
		msg = fmt.Sprintf("%s, node %q", msg, e.Node)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *GraphError) Unwrap() error {
	return e.Kind
}

// IsGraphError reports whether err is a local validation failure.
func IsGraphError(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge)
}
