package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError       ErrorCode = "DATABASE_ERROR"
	ErrCodeLocationUnavailable ErrorCode = "LOCATION_UNAVAILABLE"
	ErrCodeSubmissionFailure   ErrorCode = "SUBMISSION_FAILURE"
	ErrCodeFetchFailure        ErrorCode = "FETCH_FAILURE"
)

// FieldError описывает ошибку конкретного поля формы.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Fields     []FieldError
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation собирает ошибки полей в одну ошибку валидации.
// Message — сообщения полей через "; ".
func Validation(fields ...FieldError) *AppError {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	err := New(ErrCodeValidation, strings.Join(msgs, "; "))
	err.Fields = fields
	return err
}

// Field — короткий конструктор FieldError.
func Field(field, message string) FieldError {
	return FieldError{Field: field, Message: message}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeSubmissionFailure, ErrCodeFetchFailure:
		return http.StatusBadGateway
	case ErrCodeLocationUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

func IsLocationUnavailable(err error) bool {
	return hasCode(err, ErrCodeLocationUnavailable)
}

func IsSubmissionFailure(err error) bool {
	return hasCode(err, ErrCodeSubmissionFailure)
}

func IsFetchFailure(err error) bool {
	return hasCode(err, ErrCodeFetchFailure)
}

// FieldsOf возвращает ошибки полей, если err — ошибка валидации.
func FieldsOf(err error) []FieldError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

var (
	ErrReportNotFound      = New(ErrCodeNotFound, "report not found")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials  = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrLocationRequired    = Validation(Field("location", "location required"))
	ErrInvalidTransition   = New(ErrCodeConflict, "недопустимый переход статуса")
	ErrLocationUnavailable = New(ErrCodeLocationUnavailable, "location unavailable")
)
