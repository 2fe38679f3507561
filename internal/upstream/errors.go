package upstream

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// ErrorClass separates failures the gateway may retry from those it
// must not.
type ErrorClass string

const (
	// ClassTransient covers timeouts, connection failures, upstream
	// throttling and server errors. A later attempt may succeed.
	ClassTransient ErrorClass = "transient"
	// ClassFatal covers everything a retry cannot fix: bad requests,
	// auth failures and provider-reported request errors.
	ClassFatal ErrorClass = "fatal"
)

// Error is a classified upstream failure.
type Error struct {
	Endpoint   string
	StatusCode int // zero when the request never produced a response
	Class      ErrorClass
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s returned status %d (%s): %s", e.Endpoint, e.StatusCode, e.Class, e.Message)
	}
	return fmt.Sprintf("upstream %s failed (%s): %s", e.Endpoint, e.Class, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is an upstream failure worth
// retrying.
func IsTransient(err error) bool {
	var upErr *Error
	return errors.As(err, &upErr) && upErr.Class == ClassTransient
}

// classifyStatus maps an HTTP status to an error class. Throttling and
// server-side errors are transient, every other non-2xx is fatal.
func classifyStatus(status int) ErrorClass {
	if status == http.StatusTooManyRequests || status >= 500 {
		return ClassTransient
	}
	return ClassFatal
}

// classifyNetErr maps a transport-level error to an error class.
// Timeouts and connection failures are transient.
func classifyNetErr(err error) ErrorClass {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ClassTransient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassTransient
	}
	return ClassFatal
}
