package api

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway call failure. The console maps every kind to a
// transient operator notice; Unauthorized additionally forces re-login.
type Kind int

const (
	// KindTransport covers network and timeout failures with no response.
	KindTransport Kind = iota
	// KindUnauthorized is HTTP 401: the credential is stale or missing.
	KindUnauthorized
	// KindServerRejected is any other non-2xx status. The gateway sends no
	// structured error body, so only the status survives.
	KindServerRejected
	// KindLocalValidation is a request rejected before any network call.
	KindLocalValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindServerRejected:
		return "server rejected"
	case KindLocalValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the uniform failure surfaced by every gateway call.
type Error struct {
	Kind   Kind
	Op     string // method and path, e.g. "POST /sms/query"
	Status int    // HTTP status, 0 for transport and validation failures
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.Status)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func kindIs(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// IsUnauthorized reports whether err is a 401 from the gateway. Callers must
// treat this as "credential stale, force re-login".
func IsUnauthorized(err error) bool { return kindIs(err, KindUnauthorized) }

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool { return kindIs(err, KindTransport) }

// IsServerRejected reports whether err is a non-401 server rejection.
func IsServerRejected(err error) bool { return kindIs(err, KindServerRejected) }

// IsLocalValidation reports whether err was raised before any network call.
func IsLocalValidation(err error) bool { return kindIs(err, KindLocalValidation) }
