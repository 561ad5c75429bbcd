package mysql

import (
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func encodeResult(r analysis.Result) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeResult(s string) (analysis.Result, error) {
	var r analysis.Result
	if strings.TrimSpace(s) == "" {
		return r, nil
	}
	err := json.Unmarshal([]byte(s), &r)
	return r, err
}
