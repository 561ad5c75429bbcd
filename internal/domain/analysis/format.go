package analysis

import (
	"fmt"
	"strings"
)

// ScriptText renders only the scene list, one block per scene.
func (r Result) ScriptText() string {
	blocks := make([]string, 0, len(r.Script))
	for _, s := range r.Script {
		blocks = append(blocks, fmt.Sprintf("[%s] %s\n\"%s\"\n(%s)\n", s.Time, s.Visual, s.Text, s.Note))
	}
	return strings.Join(blocks, "\n")
}

// FullText renders title, scenes and recommendations as plain text.
func (r Result) FullText() string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\n\n")

	for i, s := range r.Script {
		fmt.Fprintf(&b, "Scene %d (%s)\n", i+1, s.Time)
		fmt.Fprintf(&b, "Visual: %s\n", s.Visual)
		fmt.Fprintf(&b, "Text: %s\n", s.Text)
		fmt.Fprintf(&b, "Note: %s\n\n", s.Note)
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "%s: %s\n", rec.Category, rec.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Matches reports whether the lower-cased query occurs in the title, any
// scene field or any recommendation. An empty query matches everything.
func (r Result) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	has := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	if has(r.Title) {
		return true
	}
	for _, s := range r.Script {
		if has(s.Visual) || has(s.Text) || has(s.Note) {
			return true
		}
	}
	for _, rec := range r.Recommendations {
		if has(rec.Category) || has(rec.Text) {
			return true
		}
	}
	return false
}
