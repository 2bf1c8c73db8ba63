package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ashvinparmar897/atc-drive-web/pkg/protocol"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindRemote is a generic server-side failure.
	KindRemote ErrorKind = iota
	// KindUnauthorized means the token is missing or expired. The
	// session must be torn down; the call is never retried.
	KindUnauthorized
	// KindForbidden means the server refused for lack of permissions.
	KindForbidden
	// KindNotFound means the target no longer exists.
	KindNotFound
	// KindValidation is a client-side input rejection; no request was
	// sent.
	KindValidation
	// KindNetwork means the request never reached the server.
	KindNetwork
)

// APIError is the error surface for every failed gateway call.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Op         string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401-class failure.
func IsUnauthorized(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Kind == KindUnauthorized
}

// IsForbidden reports whether err is a permission refusal.
func IsForbidden(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Kind == KindForbidden
}

// IsNotFound reports whether err is a missing-target failure.
func IsNotFound(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Kind == KindNotFound
}

// UserMessage translates err into a short user-facing string. Forbidden
// responses are rewritten into an access explanation instead of the raw
// server string.
func UserMessage(err error) string {
	ae, ok := AsAPIError(err)
	if !ok {
		return err.Error()
	}
	switch ae.Kind {
	case KindUnauthorized:
		return "Your session has expired. Please sign in again."
	case KindForbidden:
		return "You do not have access to this item. Contact an admin for access."
	case KindNetwork:
		return "Could not reach the server. Check your connection and try again."
	default:
		return ae.Message
	}
}

// validationError builds a local input rejection; no request is sent
// for these.
func validationError(op, msg string) error {
	return &APIError{Kind: KindValidation, Op: op, Message: msg}
}

// networkError wraps a transport failure.
func networkError(op string, err error) error {
	return &APIError{Kind: KindNetwork, Op: op, Message: err.Error()}
}

// classify turns a non-2xx response into an APIError, preferring the
// server-supplied detail field over the generic fallback.
func classify(op string, resp *http.Response, fallback string) error {
	msg := fallback
	var errResp protocol.ErrorResponse
	if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Message() != "" {
		msg = errResp.Message()
	}

	kind := KindRemote
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusNotFound:
		kind = KindNotFound
	}

	return &APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Op:         op,
		Message:    msg,
	}
}
