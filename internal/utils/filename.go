package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Runs of whitespace collapse to a single underscore
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

const maxFilenameLength = 200

// SanitizeFilename turns a collection name into a safe file name stem.
// Path separators and other invalid characters are removed, whitespace
// becomes "_" and leading dots are dropped so the file is neither hidden
// nor able to point outside its directory.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")

	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}

	if name == "" {
		name = "collection"
	}
	return name
}
