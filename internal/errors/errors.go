package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound     ErrorCode = "account_not_found"
	DuplicateAccount    ErrorCode = "duplicate_account"
	InvalidInput        ErrorCode = "invalid_input"
	InvalidAmount       ErrorCode = "invalid_amount"
	InvalidAccountID    ErrorCode = "invalid_account_id"
	MissingAccount      ErrorCode = "missing_account"
	SameAccountTransfer ErrorCode = "same_account_transfer"
	UnsupportedEvent    ErrorCode = "unsupported_event"
	InsufficientBalance ErrorCode = "insufficient_balance"
	Unauthorized        ErrorCode = "unauthorized"
	InternalError       ErrorCode = "internal_error"
)

// Kind groups error codes into the classes callers branch on.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindInsufficientFunds
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying store or driver error, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrAccountNotFound) holds for copies carrying details.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds an AppError that keeps cause in its chain.
func Wrap(code ErrorCode, message string, cause error) *AppError {
	e := &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// WithDetails returns a copy of e carrying details. The receiver is left
// untouched so the predefined errors below stay immutable.
func (e *AppError) WithDetails(details string) *AppError {
	c := *e
	c.Details = details
	return &c
}

func (e *AppError) Kind() Kind {
	switch e.Code {
	case AccountNotFound:
		return KindNotFound
	case DuplicateAccount:
		return KindConflict
	case InvalidInput, InvalidAmount, InvalidAccountID, MissingAccount, SameAccountTransfer, UnsupportedEvent:
		return KindValidation
	case InsufficientBalance:
		return KindInsufficientFunds
	case Unauthorized:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

func (e *AppError) HTTPStatus() int {
	switch e.Kind() {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf classifies err; anything that is not an AppError is internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind()
	}
	return KindInternal
}

// Predefined errors for common cases
var (
	ErrAccountNotFound     = NewAppError(AccountNotFound, "account not found")
	ErrDuplicateAccount    = NewAppError(DuplicateAccount, "account already exists")
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be greater than zero with at most two decimal places")
	ErrInvalidAccountID    = NewAppError(InvalidAccountID, "invalid account id")
	ErrSameAccountTransfer = NewAppError(SameAccountTransfer, "origin and destination accounts must differ")
	ErrInsufficientBalance = NewAppError(InsufficientBalance, "insufficient balance")
	ErrUnauthorized        = NewAppError(Unauthorized, "missing or invalid user identity")
)
