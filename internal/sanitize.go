package internal

import "strings"

// SanitizeString strips control characters that would allow log forging
// before a user-supplied value is logged or echoed in an error payload.
func SanitizeString(s string) string {
	replacer := strings.NewReplacer("\n", "", "\r", "", "\t", " ")
	return replacer.Replace(s)
}
