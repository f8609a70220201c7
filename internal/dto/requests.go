package dto

import (
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// CreateReportRequest — JSON-вариант создания отчёта; images содержат data URL.
type CreateReportRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Severity    string           `json:"severity"`
	Location    *LocationRequest `json:"location"`
	Images      []string         `json:"images"`
	ReportedBy  string           `json:"reportedBy"`
}

// LocationRequest — место из запроса. Координаты указателями, чтобы отличить
// отсутствующее поле от нуля.
type LocationRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address,omitempty"`
}

// ToModel требует обе координаты.
func (l *LocationRequest) ToModel() (*models.Location, error) {
	if l == nil {
		return nil, nil
	}
	if l.Lat == nil || l.Lng == nil {
		return nil, apperror.Validation(apperror.Field("location", "location must include lat and lng"))
	}
	return &models.Location{Lat: *l.Lat, Lng: *l.Lng, Address: l.Address}, nil
}

// UpdateStatusRequest — тело PATCH /api/reports/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// StaffLoginRequest — тело POST /api/staff/login.
type StaffLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
