package intake

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// ReadFile читает файл с диска и определяет его заявленный тип по расширению,
// а при неизвестном расширении — по содержимому.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("intake: не удалось прочитать %s: %w", path, err)
	}

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		if detected, ok := DetectImageType(data); ok {
			mediaType = detected
		} else {
			mediaType = "application/octet-stream"
		}
	}

	return File{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Data:      data,
	}, nil
}
