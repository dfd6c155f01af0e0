package apperrors

import (
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies an error for the response envelope. The status codes
// follow the HTTP taxonomy even though transport is out of this module.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindDependency   Kind = "dependency"
)

const uniqueViolationCode = "23505"

type AppError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidation(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, StatusCode: 400, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, StatusCode: 404, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, StatusCode: 400, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidState(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidState, StatusCode: 400, Message: fmt.Sprintf(format, args...)}
}

func NewDependency(message string, cause error) *AppError {
	return &AppError{Kind: KindDependency, StatusCode: 500, Message: message, Err: cause}
}

// From returns the AppError in err's chain, or wraps it as a dependency
// failure so callers always get a classified error.
func From(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: KindDependency, StatusCode: 500, Message: "internal error", Err: err}
}

func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

func StatusCode(err error) int {
	return From(err).StatusCode
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The constraint is the authoritative uniqueness guard; the
// in-process probes are only an optimization.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// FromStorage translates a storage error: unique violations become
// retryable conflicts, everything else a dependency failure.
func FromStorage(err error, contextMsg string) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		var pgErr *pgconn.PgError
		stderrors.As(err, &pgErr)
		return &AppError{
			Kind:       KindConflict,
			StatusCode: 400,
			Message:    fmt.Sprintf("duplicate value violates constraint %s", pgErr.ConstraintName),
			Err:        err,
		}
	}
	return NewDependency(contextMsg, err)
}
