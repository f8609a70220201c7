package locator

import "github.com/ignatzorin/roadwatch/internal/models"

// Point — нормализованная точка внутри области карты, x и y в [0, 1].
type Point struct {
	X float64
	Y float64
}

// InViewport проверяет, что точка лежит внутри области карты.
func (p Point) InViewport() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// Project переводит точку области карты в координаты.
// Упрощённая плоская проекция: реальная карта и геокодинг живут у внешнего провайдера.
func Project(p Point) (lat, lng float64) {
	return 90 - p.Y*180, p.X*360 - 180
}

// Unproject — обратное преобразование для размещения маркеров.
func Unproject(lat, lng float64) Point {
	return Point{
		X: (lng + 180) / 360,
		Y: (90 - lat) / 180,
	}
}

// Pin — маркер, размещённый на карте.
type Pin struct {
	models.Marker
	Position Point
	Selected bool
}

// Pins размещает маркеры на карте. Маркер с selectedID помечается выбранным.
func Pins(markers []models.Marker, selectedID string) []Pin {
	pins := make([]Pin, 0, len(markers))
	for _, m := range markers {
		pins = append(pins, Pin{
			Marker:   m,
			Position: Unproject(m.Lat, m.Lng),
			Selected: selectedID != "" && m.ID == selectedID,
		})
	}
	return pins
}
