package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/roadwatch/internal/dto"
	"github.com/ignatzorin/roadwatch/internal/http/handlers/common"
	"github.com/ignatzorin/roadwatch/internal/service"
)

// StaffHandler выдаёт токены сотрудникам.
type StaffHandler struct {
	auth *service.AuthService
}

func NewStaffHandler(auth *service.AuthService) *StaffHandler {
	return &StaffHandler{auth: auth}
}

// Login обрабатывает POST /api/staff/login.
func (h *StaffHandler) Login(c *gin.Context) {
	var req dto.StaffLoginRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.LoginResponse{
		AccessToken: token.Token,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	})
}
