package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Lifecycle and resource error codes
const (
	ErrConfiguration    ErrorCode = "CONFIGURATION_ERROR"
	ErrPoolNotReady     ErrorCode = "POOL_NOT_READY"
	ErrPoolExhausted    ErrorCode = "POOL_EXHAUSTED"
	ErrTransientNetwork ErrorCode = "TRANSIENT_NETWORK"
)

// Repository error codes
const (
	ErrConflict   ErrorCode = "CONFLICT"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
)

// HTTP boundary error codes
const (
	ErrBadRequest         ErrorCode = "BAD_REQUEST"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrNotImplemented     ErrorCode = "NOT_IMPLEMENTED"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"http_status,omitempty"`
	Retryable  bool           `json:"retryable"`
	Detail     map[string]any `json:"detail,omitempty"`
	Cause      error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, so sentinel errors match
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithDetail attaches a key/value pair surfaced in the error response detail.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]any)
	}
	e.Detail[key] = value
	return e
}

// Status returns the explicit HTTP status or the default for the code.
func (e *Error) Status() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return StatusForCode(e.Code)
}

// =============================================================================
// 🧩 构造函数
// =============================================================================

// NewConfigurationError 配置缺失或非法，启动期致命
func NewConfigurationError(message string) *Error {
	return NewError(ErrConfiguration, message)
}

// NewPoolNotReadyError 连接池未初始化或已释放
func NewPoolNotReadyError(pool string) *Error {
	return NewError(ErrPoolNotReady, pool+" pool is not ready").
		WithDetail("pool", pool)
}

// NewPoolExhaustedError 等待空闲连接超时
func NewPoolExhaustedError(pool string, cause error) *Error {
	return NewError(ErrPoolExhausted, pool+" pool exhausted").
		WithRetryable(true).
		WithDetail("pool", pool).
		WithCause(cause)
}

// NewTransientNetworkError 可重试的网络错误
func NewTransientNetworkError(message string, cause error) *Error {
	return NewError(ErrTransientNetwork, message).
		WithRetryable(true).
		WithCause(cause)
}

// NewConflictError 唯一性或约束冲突
func NewConflictError(message string, cause error) *Error {
	return NewError(ErrConflict, message).WithCause(cause)
}

// NewValidationError 输入字段非法
func NewValidationError(message string) *Error {
	return NewError(ErrValidation, message)
}

// NewNotFoundError 资源不存在（仅用于 HTTP 边界，仓储层用 found 标记）
func NewNotFoundError(message string) *Error {
	return NewError(ErrNotFound, message)
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// StatusForCode maps an error code to its HTTP status.
func StatusForCode(code ErrorCode) int {
	switch code {
	// 4xx 客户端错误
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrValidation:
		return http.StatusUnprocessableEntity
	case ErrRateLimited:
		return http.StatusTooManyRequests

	// 5xx 服务端错误
	case ErrNotImplemented:
		return http.StatusNotImplemented
	case ErrPoolNotReady, ErrPoolExhausted, ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrTransientNetwork:
		return http.StatusBadGateway
	case ErrConfiguration, ErrInternalError:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
