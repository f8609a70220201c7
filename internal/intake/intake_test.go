package intake

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
	jpgHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}
)

func pngFile(name string) File {
	data := append([]byte{}, pngHeader...)
	data = append(data, []byte(name)...)
	return File{Name: name, MediaType: "image/png", Data: data}
}

type recorder struct {
	calls [][]string
}

func (r *recorder) onChange(images []string) {
	r.calls = append(r.calls, images)
}

func TestAcceptFiles_PreservesSelectionOrder(t *testing.T) {
	rec := &recorder{}
	in := New(WithOnChange(rec.onChange))

	files := []File{pngFile("a"), pngFile("b"), pngFile("c")}
	require.NoError(t, in.AcceptFiles(context.Background(), files))

	images := in.Images()
	require.Len(t, images, 3)
	for i, f := range files {
		assert.Equal(t, EncodeDataURL("image/png", f.Data), images[i])
	}
	assert.Len(t, rec.calls, 1, "одно уведомление на вызов")
}

func TestAcceptFiles_NeverExceedsMax(t *testing.T) {
	in := New()
	var files []File
	for i := 0; i < 7; i++ {
		files = append(files, pngFile(fmt.Sprintf("f%d", i)))
	}

	require.NoError(t, in.AcceptFiles(context.Background(), files))
	assert.Len(t, in.Images(), 3)
	assert.Equal(t, 0, in.Remaining())

	require.NoError(t, in.AcceptFiles(context.Background(), files))
	assert.Len(t, in.Images(), 3)
}

func TestAcceptFiles_IndividualCallsMatchBatch(t *testing.T) {
	files := []File{pngFile("x"), pngFile("y")}

	batch := New()
	require.NoError(t, batch.AcceptFiles(context.Background(), files))

	single := New()
	for _, f := range files {
		require.NoError(t, single.AcceptFiles(context.Background(), []File{f}))
	}

	assert.Equal(t, batch.Images(), single.Images())
}

func TestAcceptFiles_SkipsNonImages(t *testing.T) {
	rec := &recorder{}
	in := New(WithOnChange(rec.onChange))

	files := []File{
		{Name: "notes.txt", MediaType: "text/plain", Data: []byte("hello")},
		pngFile("ok"),
		{Name: "empty.png", MediaType: "image/png"},
	}
	require.NoError(t, in.AcceptFiles(context.Background(), files))

	assert.Len(t, in.Images(), 1)
	require.Len(t, rec.calls, 1)
	assert.Len(t, rec.calls[0], 1)
}

func TestAcceptFiles_SkipsImageTypesServerRejects(t *testing.T) {
	rec := &recorder{}
	in := New(WithOnChange(rec.onChange))

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	bmp := []byte{0x42, 0x4D, 0x3A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x36, 0x00, 0x00, 0x00}
	files := []File{
		{Name: "icon.svg", MediaType: "image/svg+xml", Data: svg},
		{Name: "scan.bmp", MediaType: "image/bmp", Data: bmp},
		{Name: "scan.tiff", MediaType: "image/tiff", Data: []byte{0x49, 0x49, 0x2A, 0x00, 0x08, 0x00}},
		{Name: "renamed.png", MediaType: "image/png", Data: bmp},
		pngFile("ok"),
	}
	require.NoError(t, in.AcceptFiles(context.Background(), files))

	images := in.Images()
	require.Len(t, images, 1)
	assert.Equal(t, EncodeDataURL("image/png", files[4].Data), images[0])
	require.Len(t, rec.calls, 1)
}

func TestAcceptFiles_OnlySVGDoesNotNotify(t *testing.T) {
	rec := &recorder{}
	in := New(WithOnChange(rec.onChange))

	svg := File{Name: "map.svg", MediaType: "image/svg+xml", Data: []byte("<svg></svg>")}
	require.NoError(t, in.AcceptFiles(context.Background(), []File{svg}))
	assert.Empty(t, rec.calls)
	assert.Empty(t, in.Images())
}

func TestIsImageType(t *testing.T) {
	for _, mt := range []string{"image/jpeg", "image/jpg", "IMAGE/PNG", "image/gif", "image/webp", "image/heif", "image/png; charset=binary"} {
		assert.True(t, IsImageType(mt), mt)
	}
	for _, mt := range []string{"image/svg+xml", "image/bmp", "image/tiff", "text/plain", "", "image/"} {
		assert.False(t, IsImageType(mt), mt)
	}
}

func TestAcceptFiles_OnlyNonImagesDoesNotNotify(t *testing.T) {
	rec := &recorder{}
	in := New(WithOnChange(rec.onChange))

	err := in.AcceptFiles(context.Background(), []File{{Name: "a.pdf", MediaType: "application/pdf", Data: []byte("%PDF")}})
	require.NoError(t, err)
	assert.Empty(t, rec.calls)
	assert.Empty(t, in.Images())
}

func TestAcceptFiles_UsesSniffedType(t *testing.T) {
	in := New()
	f := File{Name: "photo.png", MediaType: "image/png", Data: jpgHeader}
	require.NoError(t, in.AcceptFiles(context.Background(), []File{f}))

	mediaType, data, err := DecodeDataURL(in.Images()[0])
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mediaType)
	assert.Equal(t, jpgHeader, data)
}

func TestAcceptFiles_CancelledContext(t *testing.T) {
	in := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := in.AcceptFiles(ctx, []File{pngFile("a")})
	assert.Error(t, err)
	assert.Empty(t, in.Images())
}

func TestRemove(t *testing.T) {
	rec := &recorder{}
	in := New(WithOnChange(rec.onChange))
	files := []File{pngFile("a"), pngFile("b"), pngFile("c")}
	require.NoError(t, in.AcceptFiles(context.Background(), files))

	require.NoError(t, in.Remove(1))
	images := in.Images()
	require.Len(t, images, 2)
	assert.Equal(t, EncodeDataURL("image/png", files[0].Data), images[0])
	assert.Equal(t, EncodeDataURL("image/png", files[2].Data), images[1])
	assert.Len(t, rec.calls, 2)

	assert.ErrorIs(t, in.Remove(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, in.Remove(-1), ErrIndexOutOfRange)
}

func TestDragAndDrop(t *testing.T) {
	in := New(WithMax(2))
	in.DragEnter()
	assert.True(t, in.Dragging())

	require.NoError(t, in.Drop(context.Background(), []File{pngFile("a")}))
	assert.False(t, in.Dragging())
	assert.Len(t, in.Images(), 1)

	in.DragEnter()
	in.DragLeave()
	assert.False(t, in.Dragging())
	assert.Equal(t, 1, in.Remaining())
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	_, _, err := DecodeDataURL("https://example.com/a.png")
	assert.ErrorIs(t, err, ErrNotDataURL)

	_, _, err = DecodeDataURL("data:image/png,raw")
	assert.ErrorIs(t, err, ErrNotDataURL)
}
