// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims surrounding whitespace and lowercases the address so that
// lookups and unique indexes are case-insensitive.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}
