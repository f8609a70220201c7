package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/h2non/filetype"

	"github.com/ignatzorin/roadwatch/internal/intake"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// imageFromPart читает загруженный файл, проверяет магические байты и возвращает data URL.
func imageFromPart(fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if fh.Size == 0 {
		return "", apperror.Validation(apperror.Field("images", fmt.Sprintf("%s is empty", fh.Filename)))
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", apperror.Validation(apperror.Field("images", fmt.Sprintf("%s is too large", fh.Filename)))
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("handlers: не удалось открыть файл %s: %w", fh.Filename, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return "", fmt.Errorf("handlers: не удалось прочитать файл %s: %w", fh.Filename, err)
	}

	mediaType, err := sniffImage(buf.Bytes())
	if err != nil {
		return "", apperror.Validation(apperror.Field("images", fmt.Sprintf("%s: %s", fh.Filename, err.Error())))
	}
	return intake.EncodeDataURL(mediaType, buf.Bytes()), nil
}

// imageFromDataURL проверяет data URL из JSON-запроса по его содержимому.
func imageFromDataURL(s string) (string, error) {
	_, data, err := intake.DecodeDataURL(s)
	if err != nil {
		return "", apperror.Validation(apperror.Field("images", "images must be base64 data URLs"))
	}
	mediaType, err := sniffImage(data)
	if err != nil {
		return "", apperror.Validation(apperror.Field("images", err.Error()))
	}
	return intake.EncodeDataURL(mediaType, data), nil
}

// sniffImage определяет тип по магическим байтам; заявленный тип не учитывается.
func sniffImage(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("unrecognized file type, only images are allowed")
	}
	if !intake.IsImageType(kind.MIME.Value) {
		return "", fmt.Errorf("unsupported image type %s", kind.MIME.Value)
	}
	return kind.MIME.Value, nil
}
