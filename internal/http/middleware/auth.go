package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/service"
)

// Ключи gin.Context.
const (
	ContextSubjectKey = "subject"
	ContextRoleKey    = "role"
)

// AuthMiddleware проверяет Bearer access токен и кладёт subject и роль в контекст.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			WriteError(c, apperror.ErrUnauthorized)
			return
		}

		subject, role, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			WriteError(c, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextSubjectKey, subject)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// RequireRole пропускает только запросы с указанной ролью. Ставится после AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRoleKey) != role {
			WriteError(c, apperror.ErrForbidden)
			return
		}
		c.Next()
	}
}
