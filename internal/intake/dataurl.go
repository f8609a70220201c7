package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/h2non/filetype"
)

const dataURLPrefix = "data:"

// ErrNotDataURL возвращается, если строка не является base64 data URL.
var ErrNotDataURL = errors.New("intake: строка не является base64 data URL")

// EncodeDataURL кодирует содержимое файла в самодостаточную строку data URL.
func EncodeDataURL(mediaType string, data []byte) string {
	return dataURLPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL разбирает data URL и возвращает MIME тип и байты.
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(s[len(dataURLPrefix):], ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrNotDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("intake: некорректный base64: %w", err)
	}
	return mediaType, data, nil
}

// Типы изображений, которые принимает сервер. Клиент фильтрует по этому же списку.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heif": true,
}

// IsImageType проверяет, что MIME тип входит в список разрешённых изображений.
// Параметры типа и регистр не учитываются, image/jpg считается image/jpeg.
func IsImageType(mediaType string) bool {
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	if parsed == "image/jpg" {
		parsed = "image/jpeg"
	}
	return allowedImageTypes[parsed]
}

// DetectImageType определяет реальный тип изображения по магическим байтам.
// Второе значение false, если содержимое не распознано как изображение.
func DetectImageType(data []byte) (string, bool) {
	head := data
	if len(head) > 261 {
		head = head[:261]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(head) {
		return "", false
	}
	return kind.MIME.Value, true
}

// ExtensionFor возвращает расширение файла для MIME типа изображения.
func ExtensionFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if ext := filetype.GetType(strings.TrimPrefix(mediaType, "image/")); ext != filetype.Unknown {
		return "." + ext.Extension
	}
	return ".img"
}
