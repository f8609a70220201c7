package common

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/roadwatch/internal/http/middleware"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// CurrentSubject возвращает subject токена из контекста.
func CurrentSubject(c *gin.Context) (string, error) {
	subject := c.GetString(middleware.ContextSubjectKey)
	if subject == "" {
		return "", apperror.ErrUnauthorized
	}
	return subject, nil
}

// ParseUUIDParam читает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, apperror.Validation(apperror.Field(paramName, paramName+" must be a valid UUID"))
	}
	return parsed, nil
}

// BindJSON разбирает тело запроса; ошибка разбора — BAD_REQUEST.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// RespondError отправляет ошибку в едином формате.
func RespondError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// RespondJSON отправляет JSON с кодом ответа.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondCreated отправляет 201 с телом.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}
