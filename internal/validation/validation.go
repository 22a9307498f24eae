// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
)

const (
	maxCouponCodeLen = 32
	maxDocumentIDLen = 128
)

// IsValidCouponCode проверяет формат промокода: латинские буквы, цифры, '-' и '_'.
// Пробелы по краям допускаются, регистр не важен.
func IsValidCouponCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > maxCouponCodeLen {
		return false
	}

	for _, ch := range code {
		switch {
		case ch < unicode.MaxASCII && (unicode.IsLetter(ch) || unicode.IsDigit(ch)):
		case ch == '-' || ch == '_':
		default:
			return false
		}
	}
	return true
}

// IsValidDocumentID проверяет идентификатор документа хранилища:
// непустой, без пробелов, управляющих символов и '/'.
func IsValidDocumentID(id string) bool {
	if id == "" || len(id) > maxDocumentIDLen {
		return false
	}

	for _, ch := range id {
		if ch == '/' || unicode.IsSpace(ch) || unicode.IsControl(ch) {
			return false
		}
	}
	return true
}
