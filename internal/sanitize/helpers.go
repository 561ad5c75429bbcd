package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var blockedSchemes = []string{"javascript:", "data:", "vbscript:", "file:"}

// URL returns "" for links using a script-capable or local scheme and the
// input unchanged otherwise.
func URL(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return ""
	}
	for _, p := range blockedSchemes {
		if strings.HasPrefix(lower, p) {
			return ""
		}
	}
	return raw
}

var dotsRe = regexp.MustCompile(`\.{2,}`)

const maxFilenameLen = 255

// Filename maps a user supplied name onto a safe object-key component.
func Filename(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, name)
	mapped = dotsRe.ReplaceAllString(mapped, ".")

	runes := []rune(mapped)
	if len(runes) > maxFilenameLen {
		runes = runes[:maxFilenameLen]
	}
	return string(runes)
}

var videoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

// IsVideoMIME reports whether the type is one of the accepted video formats.
// Parameters such as "; codecs=..." are ignored.
func IsVideoMIME(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	return videoTypes[strings.ToLower(strings.TrimSpace(base))]
}
