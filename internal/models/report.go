package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Location — точка на карте с необязательным адресом.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Valid проверяет диапазоны широты и долготы.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Describe возвращает адрес или координаты, если адреса нет.
func (l Location) Describe() string {
	if l.Address != "" {
		return l.Address
	}
	return fmt.Sprintf("Coordinates: %.6f, %.6f", l.Lat, l.Lng)
}

// Report — отчёт о дорожной проблеме.
type Report struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     Location   `json:"location"`
	Severity     Severity   `json:"severity"`
	Status       Status     `json:"status"`
	Images       []string   `json:"images"`
	ReportedBy   string     `json:"reportedBy"`
	Upvotes      int        `json:"upvotes"`
	DateReported time.Time  `json:"dateReported"`
	DateUpdated  *time.Time `json:"dateUpdated,omitempty"`
}

// Marker описывает точку отчёта на карте.
type Marker struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// MarkerOf строит маркер из отчёта.
func MarkerOf(r Report) Marker {
	return Marker{
		ID:    r.ID.String(),
		Title: r.Title,
		Lat:   r.Location.Lat,
		Lng:   r.Location.Lng,
	}
}
