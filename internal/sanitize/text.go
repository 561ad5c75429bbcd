package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Text makes a single AI-supplied string safe to render as HTML.
//
// Existing character references are decoded first so that text which was
// already cleaned comes out unchanged, then tags are stripped and the
// markup characters are escaped. A bare '&' that cannot start a reference
// (as in "A&B") is kept as is.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	s = tagRe.ReplaceAllString(s, "")
	return escape(s)
}

func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#x27;")
		case '/':
			b.WriteString("&#x2F;")
		case '&':
			if decodes(s[i:]) {
				b.WriteString("&amp;")
			} else {
				b.WriteByte('&')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// maxRefLen bounds the look-ahead; the longest named reference is 32 bytes.
const maxRefLen = 64

// decodes reports whether the '&' at the start of s would be read as a
// character reference. The trailing space keeps short numeric forms like
// "&#5" from hitting the decoder's end-of-input shortcut.
func decodes(s string) bool {
	end := 1
	for end < len(s) && end <= maxRefLen && isRefByte(s[end]) {
		end++
	}
	token := s[:end] + " "
	return html.UnescapeString(token) != token
}

func isRefByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '#' || c == ';'
}
