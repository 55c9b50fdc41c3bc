package whatsapp

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	// KindConfiguration means the tenant has no usable credential.
	KindConfiguration ErrorKind = "configuration"
	// KindInvalidRequest means the payload or recipient was rejected before any call.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindTransport covers timeouts, DNS and connection failures.
	KindTransport ErrorKind = "transport"
	// KindProviderRejected means the Graph API answered with an error object.
	KindProviderRejected ErrorKind = "provider_rejected"
)

var (
	ErrMissingCredentials = errors.New("whatsapp credentials are not configured")
	ErrInvalidRecipient   = errors.New("recipient phone number has no digits")
)

// SendError is returned by every failed Send. Callers branch on Kind.
type SendError struct {
	Kind       ErrorKind
	StatusCode int
	// Code is the Graph API error code (190 for an expired token).
	Code    int
	Message string
	Body    string
	Err     error
}

func (e *SendError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Code > 0:
		return fmt.Sprintf("whatsapp %s: status=%d code=%d: %s", e.Kind, e.StatusCode, e.Code, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("whatsapp %s: status=%d: %s", e.Kind, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("whatsapp %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("whatsapp %s: %s", e.Kind, e.Message)
	}
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the same request may succeed later.
func (e *SendError) Temporary() bool {
	if e.Kind == KindTransport {
		return true
	}
	return e.Kind == KindProviderRejected &&
		(e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError)
}

// AsSendError unwraps err into a *SendError when it is one.
func AsSendError(err error) (*SendError, bool) {
	var se *SendError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
