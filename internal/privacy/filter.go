// Package privacy strips caller-marked private content before anything is
// written to a durable tier. Text inside <private> tags never reaches the
// event log or the vector index.
package privacy

import (
	"regexp"
	"strings"
)

// privateTagRegex matches <private>...</private> blocks (non-greedy, dotall).
var privateTagRegex = regexp.MustCompile(`(?s)<private>.*?</private>`)

// StripPrivateTags removes all <private>...</private> blocks from content and
// trims the remainder.
func StripPrivateTags(content string) string {
	return strings.TrimSpace(privateTagRegex.ReplaceAllString(content, ""))
}

// HasOnlyPrivateContent reports whether nothing useful remains after
// stripping — callers should drop such writes entirely rather than store an
// empty record.
func HasOnlyPrivateContent(content string) bool {
	return StripPrivateTags(content) == ""
}
