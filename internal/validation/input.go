package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxReportTitleLength       = 200
	MaxReportDescriptionLength = 5000
	MaxAddressLength           = 300
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateTitle проверяет заголовок отчёта.
func ValidateTitle(title string) error {
	if err := ValidateNonEmpty("title", title); err != nil {
		return err
	}
	return ValidateLength("title", strings.TrimSpace(title), 0, MaxReportTitleLength)
}

// ValidateDescription проверяет описание отчёта.
func ValidateDescription(description string) error {
	if err := ValidateNonEmpty("description", description); err != nil {
		return err
	}
	return ValidateLength("description", strings.TrimSpace(description), 0, MaxReportDescriptionLength)
}

// ValidateLocation проверяет координаты и длину адреса.
func ValidateLocation(loc *models.Location) error {
	if loc == nil {
		return fmt.Errorf("location required")
	}
	if loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("latitude must be within [-90, 90]")
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		return fmt.Errorf("longitude must be within [-180, 180]")
	}
	return ValidateLength("address", loc.Address, 0, MaxAddressLength)
}

// ValidateDetails проверяет поля шага "Details": заголовок и описание.
// Возвращает nil или ошибку валидации со списком полей.
func ValidateDetails(title, description string) error {
	var fields []apperror.FieldError
	if err := ValidateTitle(title); err != nil {
		fields = append(fields, apperror.Field("title", err.Error()))
	}
	if err := ValidateDescription(description); err != nil {
		fields = append(fields, apperror.Field("description", err.Error()))
	}
	if len(fields) > 0 {
		return apperror.Validation(fields...)
	}
	return nil
}

// ValidateReport проверяет отчёт целиком перед сохранением.
func ValidateReport(r *models.Report) error {
	var fields []apperror.FieldError
	if err := ValidateTitle(r.Title); err != nil {
		fields = append(fields, apperror.Field("title", err.Error()))
	}
	if err := ValidateDescription(r.Description); err != nil {
		fields = append(fields, apperror.Field("description", err.Error()))
	}
	if !r.Severity.IsValid() {
		fields = append(fields, apperror.Field("severity", "severity must be one of low, medium, high"))
	}
	if err := ValidateLocation(&r.Location); err != nil {
		fields = append(fields, apperror.Field("location", err.Error()))
	}
	if len(r.Images) > models.MaxImages {
		fields = append(fields, apperror.Field("images", fmt.Sprintf("at most %d images are allowed", models.MaxImages)))
	}
	if r.Upvotes < 0 {
		fields = append(fields, apperror.Field("upvotes", "upvotes must not be negative"))
	}
	if len(fields) > 0 {
		return apperror.Validation(fields...)
	}
	return nil
}
