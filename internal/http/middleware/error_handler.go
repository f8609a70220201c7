package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/roadwatch/internal/dto"
	"github.com/ignatzorin/roadwatch/internal/logger"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// WriteError отправляет ошибку в формате {message, code, fields}.
// AppError отдаётся как есть, остальные ошибки маскируются под INTERNAL_ERROR.
func WriteError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("внутренняя ошибка запроса")
		appErr = apperror.New(apperror.ErrCodeInternal, "internal server error")
	} else if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"code":   appErr.Code,
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("ошибка запроса")
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, dto.NewErrorResponse(appErr))
}

// ErrorHandler отвечает за ошибки, добавленные через c.Error, если ответ ещё не отправлен.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}
