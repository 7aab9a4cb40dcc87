package usecases

import "strings"

// NormalizeNewlines turns \r\n and lone \r into \n. Browsers submit textarea
// breaks as \r\n, and the CSV reader drops the \r on reload, so records are
// normalized before they are scored and stored.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
