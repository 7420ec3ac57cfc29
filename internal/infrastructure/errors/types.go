package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies failures across discovery, storage, platform and launch operations
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeDuplicate
	ErrCodeConstraint
	ErrCodeConnection
	ErrCodeTransaction
	ErrCodeTimeout
	ErrCodeValidation
	ErrCodePermission
	ErrCodeDiskSpace
	ErrCodeCorruption
	ErrCodeInternal
	ErrCodeBusy
	ErrCodeSchema
	ErrCodeUnsupported
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeDuplicate:
		return "DUPLICATE"
	case ErrCodeConstraint:
		return "CONSTRAINT"
	case ErrCodeConnection:
		return "CONNECTION"
	case ErrCodeTransaction:
		return "TRANSACTION"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeDiskSpace:
		return "DISK_SPACE"
	case ErrCodeCorruption:
		return "CORRUPTION"
	case ErrCodeInternal:
		return "INTERNAL"
	case ErrCodeBusy:
		return "BUSY"
	case ErrCodeSchema:
		return "SCHEMA"
	case ErrCodeUnsupported:
		return "UNSUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// Error carries an operation name, classification and context for a failure
type Error struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Retryable bool              // whether the operation may be retried
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *Error) Error() string {
	if e == nil {
		return "sidedock error"
	}

	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}
	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	// Context keys are sorted so messages are stable
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	suffix := ""
	if len(parts) > 0 {
		suffix = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + suffix
	}
	return "sidedock error" + suffix
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by code, otherwise defers to the wrapped error
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *Error) IsRetryable() bool {
	if e == nil {
		return false
	}
	return e.Retryable
}

// GetCode returns the error code as a string (for logging.CodedError)
func (e *Error) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for logging.CodedError)
func (e *Error) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging.CodedError)
func (e *Error) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds a context pair by mutating the receiver.
// Not safe once the error has been shared with other goroutines.
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates an error for op with the given classification
func New(op string, err error, code ErrorCode) *Error {
	return &Error{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: isRetryableError(code, err),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewWithContext creates an error with a copy of context attached
func NewWithContext(op string, err error, code ErrorCode, context map[string]string) *Error {
	e := New(op, err, code)
	if context != nil {
		e.Context = make(map[string]string, len(context))
		for k, v := range context {
			e.Context[k] = v
		}
	}
	return e
}

// isRetryableError decides retryability from the code, falling back to message hints
func isRetryableError(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeTransaction, ErrCodeBusy:
		return true
	case ErrCodeNotFound, ErrCodeDuplicate, ErrCodeConstraint, ErrCodeValidation, ErrCodePermission,
		ErrCodeCorruption, ErrCodeInternal, ErrCodeSchema, ErrCodeUnsupported, ErrCodeDiskSpace:
		// disk space needs the user to free storage; retrying in-process will not help
		return false
	default:
		if err != nil {
			errStr := strings.ToLower(err.Error())
			return strings.Contains(errStr, "temporar") ||
				strings.Contains(errStr, "retry") ||
				strings.Contains(errStr, "busy") ||
				strings.Contains(errStr, "locked")
		}
		return false
	}
}

// HasCode reports whether err (or anything it wraps) is an *Error with code
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNotFound checks if the error is a "not found" error
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// IsPermission checks if the error is a permission error
func IsPermission(err error) bool { return HasCode(err, ErrCodePermission) }

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

// IsUnsupported checks if the operation is not available on this platform
func IsUnsupported(err error) bool { return HasCode(err, ErrCodeUnsupported) }

// IsConnection checks if the error is a connection error
func IsConnection(err error) bool { return HasCode(err, ErrCodeConnection) }

// IsTimeout checks if the error is a timeout error
func IsTimeout(err error) bool { return HasCode(err, ErrCodeTimeout) }

// IsBusy checks if the error is a busy/locked error
func IsBusy(err error) bool { return HasCode(err, ErrCodeBusy) }

// IsCorruption checks if the error is a corruption error
func IsCorruption(err error) bool { return HasCode(err, ErrCodeCorruption) }

// IsSchema checks if the error is a schema error
func IsSchema(err error) bool { return HasCode(err, ErrCodeSchema) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
