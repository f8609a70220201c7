package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/roadwatch/internal/service"
)

// FeatureHandler отдаёт список возможностей для главной страницы.
type FeatureHandler struct {
	service *service.FeatureService
}

func NewFeatureHandler(svc *service.FeatureService) *FeatureHandler {
	return &FeatureHandler{service: svc}
}

// List обрабатывает GET /api/features.
func (h *FeatureHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.List())
}
