// Package bundle embeds the static practice-content catalogs shipped with
// the binary. They are the fallback source when the dynamic store has no
// content for a test type.
package bundle

import (
	"embed"
)

//go:embed *.json
var bundleFS embed.FS

// FS returns the read-only bundle filesystem. Files are named
// "<testType>.json" and hold an ordered array of catalog items.
func FS() embed.FS {
	return bundleFS
}
