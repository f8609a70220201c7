package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/roadwatch/internal/dto"
)

// Pinger — хранилище, доступность которого проверяет /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	store  Pinger
	driver string
	hub    interface{ ClientCount() int }
}

func NewHealthHandler(store Pinger, driver string, hub interface{ ClientCount() int }) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, hub: hub}
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		checks["store"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["store"] = "healthy"
	}
	checks["store_driver"] = h.driver
	if h.hub != nil {
		checks["ws_clients"] = strconv.Itoa(h.hub.ClientCount())
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}
