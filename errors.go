package httpd

import (
	"errors"
	"fmt"
)

// ErrServerClosed is returned by Serve once its context has been cancelled.
var ErrServerClosed = errors.New("httpd: server closed")

// ConnError is an I/O failure scoped to one connection. It ends that connection only.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("httpd: %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }
