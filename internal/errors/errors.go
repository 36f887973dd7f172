package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorType classifies a failure so callers can react to the kind without
// string matching. Verification failures are deliberately distinct from
// network failures: a caller must never adopt data from a failed
// verification, while a network failure is merely a failed transfer.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeCatalog
	ErrorTypeVerification
	ErrorTypeNetwork
	ErrorTypeFileSystem
	ErrorTypeParsing
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfiguration:
		return "CONFIGURATION"
	case ErrorTypeCatalog:
		return "CATALOG"
	case ErrorTypeVerification:
		return "VERIFICATION"
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeFileSystem:
		return "FILESYSTEM"
	case ErrorTypeParsing:
		return "PARSING"
	default:
		return "UNKNOWN"
	}
}

// RepoError is an error with a machine-readable code and the identifying
// detail (app id, file name, URL) needed to locate the entity at fault.
type RepoError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]string
}

// Error implements the error interface.
func (e *RepoError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(pairs, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RepoError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel comparisons work across wrapping.
func (e *RepoError) Is(target error) bool {
	if t, ok := target.(*RepoError); ok {
		return e.Type == t.Type && (t.Code == "" || e.Code == t.Code)
	}
	return false
}

// WithContext attaches an identifying key/value to the error.
func (e *RepoError) WithContext(key, value string) *RepoError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *RepoError) WithCause(err error) *RepoError {
	e.Cause = err
	return e
}

// New creates a RepoError of the given type.
func New(errorType ErrorType, code, message string) *RepoError {
	return &RepoError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewConfigurationError reports invalid or missing configuration. These are
// raised before any document is written.
func NewConfigurationError(code, message string) *RepoError {
	return New(ErrorTypeConfiguration, code, message)
}

// NewCatalogError reports an integrity problem in the catalog itself, such
// as duplicate version codes or an unresolvable cross-reference.
func NewCatalogError(code, message string) *RepoError {
	return New(ErrorTypeCatalog, code, message)
}

// NewVerificationError reports a trust failure: the downloaded index cannot
// be believed. The caller must discard everything from the attempt.
func NewVerificationError(code, message string) *RepoError {
	return New(ErrorTypeVerification, code, message)
}

// NewNetworkError reports a transport failure.
func NewNetworkError(code, message string) *RepoError {
	return New(ErrorTypeNetwork, code, message)
}

// NewFileSystemError reports a filesystem failure.
func NewFileSystemError(code, message string) *RepoError {
	return New(ErrorTypeFileSystem, code, message)
}

// NewParsingError reports a malformed document or file.
func NewParsingError(code, message string) *RepoError {
	return New(ErrorTypeParsing, code, message)
}

// IsType reports whether err is a RepoError of the given type.
func IsType(err error, t ErrorType) bool {
	for err != nil {
		if re, ok := err.(*RepoError); ok {
			return re.Type == t
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
