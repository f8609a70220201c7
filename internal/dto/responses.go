package dto

import (
	"time"

	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// ErrorResponse — единый формат ошибки API.
type ErrorResponse struct {
	Message string                `json:"message"`
	Code    string                `json:"code,omitempty"`
	Fields  []apperror.FieldError `json:"fields,omitempty"`
}

// NewErrorResponse строит ответ из AppError.
func NewErrorResponse(err *apperror.AppError) ErrorResponse {
	return ErrorResponse{
		Message: err.Message,
		Code:    string(err.Code),
		Fields:  err.Fields,
	}
}

// LoginResponse — выданный сотруднику токен.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HealthResponse — ответ GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}
