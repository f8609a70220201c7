package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр пути — корректный UUID.
// Использование: api.GET("/reports/:id", UUIDValidator("id"), h.Get)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			WriteError(c, apperror.Validation(apperror.Field(paramName, paramName+" must be a valid UUID")))
			return
		}
		c.Next()
	}
}
