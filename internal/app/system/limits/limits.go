// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON API.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize bounds ordinary JSON request bodies (signup, signin,
	// group edits). Profile images and group images arrive as URLs, not
	// uploads, so nothing legitimate comes close.
	MaxJSONBodySize = 1 << 20 // 1 MB
)
