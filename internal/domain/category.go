package domain

import (
	"strings"
	"time"
)

// Category группирует товары каталога. Имя уникально в пределах магазина.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeCategoryName приводит имя категории к каноническому виду (обрезает пробелы).
func NormalizeCategoryName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateCategoryName проверяет имя категории перед созданием.
func ValidateCategoryName(name string) error {
	if NormalizeCategoryName(name) == "" {
		return ErrCategoryNameRequired
	}
	return nil
}
