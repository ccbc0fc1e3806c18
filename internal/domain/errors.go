// Package domain defines core types, interfaces, and errors for the transaction query API.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input outside the query builder,
// e.g. an unknown currency ISO code or a malformed pagination parameter.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// QueryBuildError is implemented by every error raised while turning request
// parameters into SQL. The HTTP layer maps the whole family to 400.
type QueryBuildError interface {
	error
	// Kind returns a short machine-readable name such as "parse_error".
	Kind() string
}

// BuildError is a query build failure that fits none of the narrower kinds,
// such as invalid function syntax or an invalid GROUP BY combination.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string { return e.Message }
func (e *BuildError) Kind() string  { return "query_build_error" }

// ParseError indicates malformed operator or value syntax.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }
func (e *ParseError) Kind() string  { return "parse_error" }

// FieldError indicates a reference to an unknown or unsafe logical field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }
func (e *FieldError) Kind() string  { return "field_error" }

// JoinError indicates an unknown join path or an unsatisfiable dependency.
type JoinError struct {
	Key     string
	Message string
}

func (e *JoinError) Error() string { return e.Message }
func (e *JoinError) Kind() string  { return "join_error" }

// SecurityError indicates a value or identifier matched an injection signature.
type SecurityError struct {
	Message string
}

func (e *SecurityError) Error() string { return e.Message }
func (e *SecurityError) Kind() string  { return "security_error" }

// QueryLimitError indicates a structural limit was exceeded.
type QueryLimitError struct {
	LimitKind string // "limit" or "filters"
	Limit     int
	Message   string
}

func (e *QueryLimitError) Error() string { return e.Message }
func (e *QueryLimitError) Kind() string  { return "query_limit_error" }

// SchemaCompatibilityError indicates the live warehouse schema does not match
// the compiled-in schema model.
type SchemaCompatibilityError struct {
	Message      string
	CurrentHash  string
	ExpectedHash string
}

func (e *SchemaCompatibilityError) Error() string { return e.Message }

// DatabaseError wraps a failure reported by the query executor.
type DatabaseError struct {
	Message string
	Timeout bool
	Err     error
}

func (e *DatabaseError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// IsQueryBuildError reports whether err belongs to the query build family.
func IsQueryBuildError(err error) bool {
	var qb QueryBuildError
	return errors.As(err, &qb)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrBuild creates a BuildError with a formatted message.
func ErrBuild(format string, args ...interface{}) *BuildError {
	return &BuildError{Message: fmt.Sprintf(format, args...)}
}

// ErrParse creates a ParseError with a formatted message.
func ErrParse(format string, args ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// ErrField creates a FieldError for field with a formatted message.
func ErrField(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrJoin creates a JoinError for key with a formatted message.
func ErrJoin(key, format string, args ...interface{}) *JoinError {
	return &JoinError{Key: key, Message: fmt.Sprintf(format, args...)}
}

// ErrSecurity creates a SecurityError with a formatted message.
func ErrSecurity(format string, args ...interface{}) *SecurityError {
	return &SecurityError{Message: fmt.Sprintf(format, args...)}
}

// ErrQueryLimit creates a QueryLimitError for the given limit kind.
func ErrQueryLimit(kind string, limit int, format string, args ...interface{}) *QueryLimitError {
	return &QueryLimitError{LimitKind: kind, Limit: limit, Message: fmt.Sprintf(format, args...)}
}

// ErrDatabase wraps err as a DatabaseError.
func ErrDatabase(err error, format string, args ...interface{}) *DatabaseError {
	return &DatabaseError{Message: fmt.Sprintf(format, args...), Err: err}
}
