package sanitize

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON means a model reply contained no JSON object.
var ErrNoJSON = errors.New("no json object in reply")

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// ExtractJSON pulls the JSON object out of a free-form model reply. A fenced
// ```json block wins; otherwise the text from the first '{' to the last '}'
// is taken.
func ExtractJSON(reply string) ([]byte, error) {
	if m := fenceRe.FindStringSubmatch(reply); m != nil {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "{") {
			return []byte(body), nil
		}
	}
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	return []byte(reply[start : end+1]), nil
}
