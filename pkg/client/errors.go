package client

import (
	"errors"
	"fmt"
	"net/http"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
)

// ErrNetwork is returned for transport failures and unexpected statuses.
var ErrNetwork = errors.New("network error")

// LoadError is returned when a graph cannot be fetched or the response does
// not have the expected shape.
type LoadError struct {
	Op  string // "getSimpleGraph", "getLinkDataGraph" or "diagram"
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Op, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *LoadError) Code() mgerrors.Code { return mgerrors.ErrCodeLoadFailed }

// SaveError is returned when a graph cannot be saved or the server's reply
// cannot be read. The caller's local state is untouched.
type SaveError struct {
	Op  string // "saveSimpleGraph" or "saveLinkDataGraph"
	Err error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save %s: %v", e.Op, e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *SaveError) Code() mgerrors.Code { return mgerrors.ErrCodeSaveFailed }

// StatusError is a non-2xx response. Code is the server's error code when
// the body carried one.
type StatusError struct {
	Status  int
	Code    mgerrors.Code
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("status %d: %s", e.Status, msg)
}

// Unwrap lets errors.Is(err, ErrNetwork) match server failures.
func (e *StatusError) Unwrap() error {
	if e.Status >= 500 {
		return ErrNetwork
	}
	return nil
}

// IsValidation reports whether the server rejected the request content.
func (e *StatusError) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}
