package adapter

import (
	"errors"
	"fmt"

	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// Standard adapter errors
var (
	// ErrOperationNotSupported is returned when an operation is not supported by the database
	ErrOperationNotSupported = errors.New("operation not supported by this database")

	// ErrConnectionClosed is returned when a driver is used after an explicit disconnect
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrExecutionFailed is returned when a statement fails at the server
	ErrExecutionFailed = errors.New("statement execution failed")

	// ErrUnsupportedAdapter is returned when no driver variant matches a name
	ErrUnsupportedAdapter = errors.New("unsupported database adapter")

	// ErrInvalidInput is returned when a table name or record is malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoRows is returned by single-row reads when the result set is empty
	ErrNoRows = errors.New("no rows in result set")

	// ErrCursorClosed is returned when fetching from a released cursor
	ErrCursorClosed = errors.New("cursor is closed")
)

// ConnectionError is returned when the native client is unavailable or a
// connect, ping or database selection fails. Code and State carry the native
// error number and SQLSTATE when the client reports them.
type ConnectionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Host         string
	Port         int
	Code         int
	State        string
	Message      string
	Cause        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("failed to connect to %s", e.DatabaseType)
	}
	if e.Host != "" {
		if e.Port > 0 {
			msg = fmt.Sprintf("%s at %s:%d", msg, e.Host, e.Port)
		} else {
			msg = fmt.Sprintf("%s at %s", msg, e.Host)
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectionError creates a new ConnectionError, lifting the native code
// from cause when it carries one.
func NewConnectionError(dbType dbcapabilities.DatabaseID, host string, port int, cause error) *ConnectionError {
	code, state := ErrorCode(cause)
	return &ConnectionError{
		DatabaseType: dbType,
		Host:         host,
		Port:         port,
		Code:         code,
		State:        state,
		Cause:        cause,
	}
}

// WithMessage sets a human readable prefix.
func (e *ConnectionError) WithMessage(format string, args ...interface{}) *ConnectionError {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// NativeCode returns the native error number.
func (e *ConnectionError) NativeCode() int { return e.Code }

// ExecutionError is returned when a statement fails at the server. It carries
// the statement text for diagnostics.
type ExecutionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Query        string
	Code         int
	State        string
	Cause        error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("[%s] error %d executing %q: %v", e.DatabaseType, e.Code, e.Query, e.Cause)
	}
	return fmt.Sprintf("[%s] error executing %q: %v", e.DatabaseType, e.Query, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrExecutionFailed.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed
}

// NativeCode returns the native error number.
func (e *ExecutionError) NativeCode() int { return e.Code }

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(dbType dbcapabilities.DatabaseID, query string, cause error) *ExecutionError {
	code, state := ErrorCode(cause)
	return &ExecutionError{
		DatabaseType: dbType,
		Query:        query,
		Code:         code,
		State:        state,
		Cause:        cause,
	}
}

// UnsupportedAdapterError is returned when a driver name resolves to no
// registered variant.
type UnsupportedAdapterError struct {
	Name string
}

// Error implements the error interface.
func (e *UnsupportedAdapterError) Error() string {
	return fmt.Sprintf("unable to load database driver: %s", e.Name)
}

// Is checks if the error is ErrUnsupportedAdapter.
func (e *UnsupportedAdapterError) Is(target error) bool {
	return target == ErrUnsupportedAdapter
}

// ValidationError is returned when input is rejected before reaching the driver.
type ValidationError struct {
	Operation string
	Reason    string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// Is checks if the error is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(operation, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Operation: operation,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// UnsupportedOperationError is returned when an operation is not supported.
type UnsupportedOperationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Reason       string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.DatabaseType, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.DatabaseType, e.Operation)
}

// Is checks if the error is ErrOperationNotSupported.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrOperationNotSupported
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError.
func NewUnsupportedOperationError(dbType dbcapabilities.DatabaseID, operation string, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{
		DatabaseType: dbType,
		Operation:    operation,
		Reason:       reason,
	}
}

// NativeError is implemented by driver errors that expose a numeric code.
// Variants install an extractor through RegisterErrorCoder for the native
// client error types they know about.
type NativeError interface {
	NativeCode() int
}

// ErrorCoder extracts a native error number and SQLSTATE from err.
type ErrorCoder func(err error) (code int, state string, ok bool)

var errorCoders []ErrorCoder

// RegisterErrorCoder adds an extractor consulted by ErrorCode. It is meant
// to be called from a variant's init function.
func RegisterErrorCoder(fn ErrorCoder) {
	errorCoders = append(errorCoders, fn)
}

// ErrorCode returns the native error number and SQLSTATE carried by err, or
// zero values when none is known.
func ErrorCode(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	for _, fn := range errorCoders {
		if code, state, ok := fn(err); ok {
			return code, state
		}
	}
	var ne NativeError
	if errors.As(err, &ne) {
		return ne.NativeCode(), ""
	}
	return 0, ""
}

// IsUnsupported checks if an error indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrOperationNotSupported)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsExecutionError checks if an error is a statement execution error.
func IsExecutionError(err error) bool {
	return errors.Is(err, ErrExecutionFailed)
}

// IsUnsupportedAdapter checks if an error reports an unknown driver name.
func IsUnsupportedAdapter(err error) bool {
	return errors.Is(err, ErrUnsupportedAdapter)
}

// IsValidationError checks if an error reports rejected input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
