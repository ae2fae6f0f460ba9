package core

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNoAuthToken      = errors.New("no CMS token found on the context")
	ErrCMSNotConfigured = errors.New("CMS URL is not configured")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// CMSError is the error envelope returned by the CMS REST API.
// Status 0 means the CMS could not be reached at all.
type CMSError struct {
	Status  int                    `json:"status"`
	Name    string                 `json:"name"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (err *CMSError) Error() string {
	return fmt.Sprintf("cms: %s (%d): %s", err.Name, err.Status, err.Message)
}

// IsNetwork reports whether the request never got a response.
func (err *CMSError) IsNetwork() bool {
	return err.Name == NetworkErrorName
}

const (
	CMSErrorName     = "StrapiError"
	NetworkErrorName = "NetworkError"
)

// NewNetworkError wraps a transport failure into a CMSError.
func NewNetworkError(err error) *CMSError {
	msg := "network error"
	if err != nil {
		msg = err.Error()
	}
	return &CMSError{Status: http.StatusInternalServerError, Name: NetworkErrorName, Message: msg}
}

// AsCMSError unwraps err down to a *CMSError.
func AsCMSError(err error) (*CMSError, bool) {
	cmsErr, ok := errors.Cause(err).(*CMSError)
	return cmsErr, ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
