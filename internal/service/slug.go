package service

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// GenerateSlug derives a unique, URL-safe identifier from free text.
// Текст приводится к нижнему регистру, последовательности
// не-алфавитно-цифровых символов схлопываются в один дефис, в конце
// добавляется случайный UUID — поэтому два вызова с одинаковым title
// всегда дают разные слаги.
func GenerateSlug(title string) string {
	var b strings.Builder
	lastDash := true // подавляем ведущий дефис
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug + "-" + uuid.NewString()
}
