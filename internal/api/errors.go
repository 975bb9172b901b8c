package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors returned before any request is issued.
var (
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrMessageTooLong = fmt.Errorf("message text exceeds %d characters", MaxMessageLength)
	ErrMissingPartner = errors.New("partner id is required")
	ErrMixedContent   = errors.New("message carries more than one content kind")
)

// defaultErrorMessage is used when a failed response has no parseable body.
const defaultErrorMessage = "Request failed"

// TransportError reports that the service could not be reached or returned
// an unreadable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports a request the service rejected with a non-2xx status.
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error %d: %s", e.Code, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *ServiceError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// IsTemporary reports whether err is a transport failure or a service error
// that may clear on retry.
func IsTemporary(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var te *TransportError
	return errors.As(err, &te)
}
