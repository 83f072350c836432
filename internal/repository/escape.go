package repository

import "strings"

// likeEscaper нейтрализует спецсимволы LIKE/ILIKE, чтобы пользовательский
// ввод всегда трактовался буквально.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLikePattern escapes backslash, percent and underscore so a
// user-supplied filter string matches only literal occurrences when used
// inside an ILIKE pattern with ESCAPE '\'.
func EscapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}
