package fresh

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINTERNAL  = "internal"
	EINVALID   = "invalid"
	ENOTFOUND  = "not_found"
	ENETWORK   = "network"
	EDISCOVERY = "discovery"
	ECORRUPT   = "corrupt"
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract out the code & message.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("fresh error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Network failures report ENETWORK, discovery failures report EDISCOVERY
// and non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var de *DiscoveryError
	if errors.As(err, &de) {
		return EDISCOVERY
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return ENETWORK
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	var de *DiscoveryError
	if errors.As(err, &de) {
		return de.Error()
	}
	return "Internal error."
}

// DiscoveryError is returned when neither the sitemap nor the link crawl
// produced a single page for a root URL.
type DiscoveryError struct {
	RootURL string
	// Err is the failure that prevented the root page from being crawled,
	// if any.
	Err error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no pages discovered for %s: %v", e.RootURL, e.Err)
	}
	return fmt.Sprintf("no pages discovered for %s", e.RootURL)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
