package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping and for callers that need to
// branch on failure class (e.g. the order importer isolating line errors).
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientStock Kind = "insufficient_stock"
	KindSortedNotSellable Kind = "sorted_product_not_sellable"
	KindChannelNotFound   Kind = "channel_not_found"
	KindCredential        Kind = "credential"
	KindRefreshFailed     Kind = "refresh_failed"
	KindPlatformAPI       Kind = "platform_api"
)

// Error carries a kind, a message and, for platform errors, the raw
// upstream payload. Payload is surfaced in responses for diagnostics but
// never contains credentials (adapters strip tokens before wrapping).
type Error struct {
	Kind    Kind
	Message string
	Payload string
	Err     error
}

func (e *Error) Error() string {
	if e.Payload != "" {
		return e.Message + ": " + e.Payload
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithPayload attaches a raw upstream payload to the error.
func (e *Error) WithPayload(payload string) *Error {
	e.Payload = payload
	return e
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func InsufficientStock(productID uint) *Error {
	return New(KindInsufficientStock, "insufficient stock for product %d", productID)
}

// KindOf extracts the Kind from err, or "" for plain errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to a response status. Validation-class errors
// map to 4xx; adapter/platform failures map to 502 so callers can tell
// local faults from upstream ones.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock, KindSortedNotSellable:
		return http.StatusBadRequest
	case KindNotFound, KindChannelNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindCredential:
		return http.StatusUnauthorized
	case KindRefreshFailed, KindPlatformAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
