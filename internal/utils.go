package internal

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeFilename replaces everything but letters, digits, '-' and '_'
// with '_'. Letters of any script are kept.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// ClipFilePattern returns the os.CreateTemp pattern for a spooled clip of a
// sentence. ext is a file extension including the dot, as reported by
// content sniffing.
func ClipFilePattern(sentenceID int, ext string) string {
	ext = SanitizeFilename(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return fmt.Sprintf("sentence-%d-*", sentenceID)
	}
	return fmt.Sprintf("sentence-%d-*.%s", sentenceID, ext)
}
