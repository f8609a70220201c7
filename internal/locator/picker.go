package locator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

const (
	MinZoom     = 0.5
	MaxZoom     = 3.0
	ZoomStep    = 0.2
	dragDamping = 0.5

	// CurrentLocationAddress подставляется для координат устройства.
	CurrentLocationAddress = "Your Current Location"
)

var (
	ErrOutsideViewport = errors.New("locator: точка вне области карты")
	ErrDragInProgress  = errors.New("locator: идёт перетаскивание карты")
	ErrReadOnly        = errors.New("locator: карта только для просмотра")
)

// Geolocator отдаёт координаты устройства. Реализация — платформенная.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (lat, lng float64, err error)
}

// AddressResolver подбирает адрес для координат (внешний провайдер карт).
type AddressResolver interface {
	Resolve(ctx context.Context, lat, lng float64) (string, error)
}

// CoordinatesResolver — резолвер по умолчанию: адресом служат сами координаты.
type CoordinatesResolver struct{}

func (CoordinatesResolver) Resolve(_ context.Context, lat, lng float64) (string, error) {
	return fmt.Sprintf("Lat %.5f, Lng %.5f", lat, lng), nil
}

// StaticGeolocator всегда возвращает заданную точку.
type StaticGeolocator struct {
	Lat float64
	Lng float64
}

func (g StaticGeolocator) CurrentPosition(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return g.Lat, g.Lng, nil
}

// Picker хранит состояние выбора точки на карте.
type Picker struct {
	geo         Geolocator
	resolver    AddressResolver
	interactive bool

	selected  *Point
	zoom      float64
	offset    Point
	dragging  bool
	dragStart Point
}

// Option настраивает Picker.
type Option func(*Picker)

// WithGeolocator задаёт источник координат устройства.
func WithGeolocator(g Geolocator) Option {
	return func(p *Picker) { p.geo = g }
}

// WithResolver задаёт провайдера адресов.
func WithResolver(r AddressResolver) Option {
	return func(p *Picker) { p.resolver = r }
}

// ReadOnly отключает выбор точки: карта только показывает маркеры.
func ReadOnly() Option {
	return func(p *Picker) { p.interactive = false }
}

// NewPicker создаёт интерактивную карту с масштабом 1.
func NewPicker(opts ...Option) *Picker {
	p := &Picker{
		resolver:    CoordinatesResolver{},
		interactive: true,
		zoom:        1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SelectAt выбирает точку по нормализованным координатам клика.
func (p *Picker) SelectAt(ctx context.Context, x, y float64) (models.Location, error) {
	if !p.interactive {
		return models.Location{}, ErrReadOnly
	}
	if p.dragging {
		return models.Location{}, ErrDragInProgress
	}
	pt := Point{X: x, Y: y}
	if !pt.InViewport() {
		return models.Location{}, ErrOutsideViewport
	}

	lat, lng := Project(pt)
	loc := models.Location{Lat: lat, Lng: lng}
	if p.resolver != nil {
		addr, err := p.resolver.Resolve(ctx, lat, lng)
		if err == nil {
			loc.Address = addr
		}
	}

	p.selected = &pt
	return loc, nil
}

// UseDeviceLocation запрашивает координаты устройства.
// При ошибке выбранная ранее точка не меняется.
func (p *Picker) UseDeviceLocation(ctx context.Context) (models.Location, error) {
	if p.geo == nil {
		return models.Location{}, apperror.Wrap(errors.New("geolocation is not supported"), apperror.ErrCodeLocationUnavailable, "location unavailable")
	}

	lat, lng, err := p.geo.CurrentPosition(ctx)
	if err != nil {
		return models.Location{}, apperror.Wrap(err, apperror.ErrCodeLocationUnavailable, "location unavailable")
	}
	loc := models.Location{Lat: lat, Lng: lng, Address: CurrentLocationAddress}
	if !loc.Valid() {
		return models.Location{}, apperror.Wrap(fmt.Errorf("invalid fix %.6f, %.6f", lat, lng), apperror.ErrCodeLocationUnavailable, "location unavailable")
	}

	pt := Unproject(lat, lng)
	p.selected = &pt
	return loc, nil
}

// Selected возвращает выбранную точку, если она есть.
func (p *Picker) Selected() (Point, bool) {
	if p.selected == nil {
		return Point{}, false
	}
	return *p.selected, true
}

// Clear сбрасывает выбранную точку.
func (p *Picker) Clear() { p.selected = nil }

// StartDrag начинает панорамирование из точки экрана.
func (p *Picker) StartDrag(x, y float64) {
	if !p.interactive {
		return
	}
	p.dragging = true
	p.dragStart = Point{X: x, Y: y}
}

// DragTo сдвигает карту; смещение гасится коэффициентом 0.5.
func (p *Picker) DragTo(x, y float64) {
	if !p.dragging || !p.interactive {
		return
	}
	p.offset.X += (x - p.dragStart.X) * dragDamping
	p.offset.Y += (y - p.dragStart.Y) * dragDamping
	p.dragStart = Point{X: x, Y: y}
}

// EndDrag завершает панорамирование.
func (p *Picker) EndDrag() { p.dragging = false }

// Offset возвращает текущее смещение карты.
func (p *Picker) Offset() Point { return p.offset }

// Zoom возвращает текущий масштаб.
func (p *Picker) Zoom() float64 { return p.zoom }

// ZoomIn увеличивает масштаб, не выше MaxZoom.
func (p *Picker) ZoomIn() float64 {
	p.zoom = math.Min(round(p.zoom+ZoomStep), MaxZoom)
	return p.zoom
}

// ZoomOut уменьшает масштаб, не ниже MinZoom.
func (p *Picker) ZoomOut() float64 {
	p.zoom = math.Max(round(p.zoom-ZoomStep), MinZoom)
	return p.zoom
}

// round убирает накопленную ошибку шага 0.2.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
