package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeDownload   ErrorType = "download"
	ErrorTypeGroupKey   ErrorType = "group_key"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a crawler error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	msg += ": " + e.Message
	if e.URL != "" {
		msg += " [" + e.URL + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewFetchError reports a page that could not be fetched or parsed
func NewFetchError(url string, code int, message string, err error) *Error {
	return &Error{Type: ErrorTypeFetch, Message: message, Code: code, URL: url, Err: err}
}

// NewDownloadError reports an image that could not be retrieved
func NewDownloadError(url string, code int, message string, err error) *Error {
	return &Error{Type: ErrorTypeDownload, Message: message, Code: code, URL: url, Err: err}
}

// NewGroupKeyError reports an invalid grouping key specification
func NewGroupKeyError(message string) *Error {
	return &Error{Type: ErrorTypeGroupKey, Message: message}
}

// New creates an error of an arbitrary type
func New(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsFetchError reports whether err is a page-level fetch failure
func IsFetchError(err error) bool {
	return TypeOf(err) == ErrorTypeFetch
}

// IsDownloadError reports whether err is an item-level download failure.
// Not-found and permission failures count as download failures too.
func IsDownloadError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeDownload, ErrorTypeNotFound, ErrorTypePermission:
		return true
	default:
		return false
	}
}

// IsGroupKeyError reports whether err is an invalid grouping key
func IsGroupKeyError(err error) bool {
	return TypeOf(err) == ErrorTypeGroupKey
}
