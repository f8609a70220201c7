package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

type failingGeolocator struct{ err error }

func (g failingGeolocator) CurrentPosition(context.Context) (float64, float64, error) {
	return 0, 0, g.err
}

func TestSelectAt_Projection(t *testing.T) {
	p := NewPicker()
	ctx := context.Background()

	cases := []struct{ x, y float64 }{
		{0, 0}, {1, 1}, {0.5, 0.5}, {0.25, 0.75}, {0.123, 0.987},
	}
	for _, tc := range cases {
		loc, err := p.SelectAt(ctx, tc.x, tc.y)
		require.NoError(t, err)
		assert.InDelta(t, 90-180*tc.y, loc.Lat, 1e-9)
		assert.InDelta(t, 360*tc.x-180, loc.Lng, 1e-9)
		assert.NotEmpty(t, loc.Address)

		back := Unproject(loc.Lat, loc.Lng)
		assert.InDelta(t, tc.x, back.X, 1e-9)
		assert.InDelta(t, tc.y, back.Y, 1e-9)
	}

	sel, ok := p.Selected()
	require.True(t, ok)
	assert.InDelta(t, 0.123, sel.X, 1e-9)
}

func TestSelectAt_OutsideViewport(t *testing.T) {
	p := NewPicker()
	_, err := p.SelectAt(context.Background(), 1.2, 0.5)
	assert.ErrorIs(t, err, ErrOutsideViewport)
	_, ok := p.Selected()
	assert.False(t, ok)
}

func TestSelectAt_BlockedWhileDragging(t *testing.T) {
	p := NewPicker()
	p.StartDrag(10, 10)
	_, err := p.SelectAt(context.Background(), 0.5, 0.5)
	assert.ErrorIs(t, err, ErrDragInProgress)

	p.EndDrag()
	_, err = p.SelectAt(context.Background(), 0.5, 0.5)
	assert.NoError(t, err)
}

func TestSelectAt_ReadOnly(t *testing.T) {
	p := NewPicker(ReadOnly())
	_, err := p.SelectAt(context.Background(), 0.5, 0.5)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestUseDeviceLocation(t *testing.T) {
	p := NewPicker(WithGeolocator(StaticGeolocator{Lat: 40.7128, Lng: -74.006}))
	loc, err := p.UseDeviceLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40.7128, loc.Lat)
	assert.Equal(t, -74.006, loc.Lng)
	assert.Equal(t, CurrentLocationAddress, loc.Address)
}

func TestUseDeviceLocation_FailureKeepsSelection(t *testing.T) {
	p := NewPicker(WithGeolocator(failingGeolocator{err: errors.New("permission denied")}))
	_, err := p.SelectAt(context.Background(), 0.5, 0.5)
	require.NoError(t, err)

	_, err = p.UseDeviceLocation(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsLocationUnavailable(err))

	sel, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, Point{X: 0.5, Y: 0.5}, sel)
}

func TestUseDeviceLocation_NoGeolocator(t *testing.T) {
	_, err := NewPicker().UseDeviceLocation(context.Background())
	assert.True(t, apperror.IsLocationUnavailable(err))
}

func TestZoomBounds(t *testing.T) {
	p := NewPicker()
	for i := 0; i < 20; i++ {
		p.ZoomIn()
	}
	assert.Equal(t, MaxZoom, p.Zoom())

	for i := 0; i < 20; i++ {
		p.ZoomOut()
	}
	assert.Equal(t, MinZoom, p.Zoom())
}

func TestPanDoesNotChangeProjection(t *testing.T) {
	p := NewPicker()
	p.StartDrag(0, 0)
	p.DragTo(40, 20)
	p.EndDrag()
	p.ZoomIn()

	assert.Equal(t, Point{X: 20, Y: 10}, p.Offset())

	loc, err := p.SelectAt(context.Background(), 0.5, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, loc.Lat, 1e-9)
	assert.InDelta(t, 0.0, loc.Lng, 1e-9)
}

func TestPins(t *testing.T) {
	markers := []models.Marker{
		{ID: "a", Title: "A", Lat: 0, Lng: 0},
		{ID: "b", Title: "B", Lat: 90, Lng: -180},
	}
	pins := Pins(markers, "b")
	require.Len(t, pins, 2)

	assert.False(t, pins[0].Selected)
	assert.InDelta(t, 0.5, pins[0].Position.X, 1e-9)
	assert.InDelta(t, 0.5, pins[0].Position.Y, 1e-9)

	assert.True(t, pins[1].Selected)
	assert.InDelta(t, 0.0, pins[1].Position.X, 1e-9)
	assert.InDelta(t, 0.0, pins[1].Position.Y, 1e-9)
}
