// Package pathutil normalizes request paths before they are used as metric
// labels, keeping label cardinality bounded.
package pathutil

import (
	"strings"
)

// knownPaths is the fixed route surface of the service. The API is small and
// flat, so an explicit set beats pattern matching.
var knownPaths = map[string]struct{}{
	"/rss":         {},
	"/clear-cache": {},
	"/health":      {},
	"/ready":       {},
	"/live":        {},
	"/metrics":     {},
}

// unknownPathLabel is the label shared by every path outside the route
// surface. Scanners probing random paths would otherwise mint one label
// per probe.
const unknownPathLabel = "/other"

// NormalizePath strips query and trailing slash, then maps the path onto
// the known route surface. Unknown paths collapse to a single label.
//
// Examples:
//
//	NormalizePath("/rss?url=https://x.test/feed") // "/rss"
//	NormalizePath("/clear-cache/")                // "/clear-cache"
//	NormalizePath("/wp-admin/setup.php")          // "/other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	if _, ok := knownPaths[path]; ok {
		return path
	}

	return unknownPathLabel
}
