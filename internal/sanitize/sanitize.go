// Package sanitize cleans AI-returned analysis results before they are shown
// or persisted.
package sanitize

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
)

// ErrMalformedInput is returned when the raw value is not an object.
var ErrMalformedInput = errors.New("malformed analysis input: expected an object")

// Sanitize normalizes an untrusted value into an analysis.Result. Every text
// field goes through Text, missing or mistyped strings become "", missing or
// mistyped arrays become empty slices. Only non-object input is an error;
// a top-level array is rejected as well.
func Sanitize(raw any) (analysis.Result, error) {
	switch v := raw.(type) {
	case nil:
		return analysis.Result{}, ErrMalformedInput
	case analysis.Result:
		return fromResult(v), nil
	case *analysis.Result:
		if v == nil {
			return analysis.Result{}, ErrMalformedInput
		}
		return fromResult(*v), nil
	case map[string]any:
		return fromMap(v), nil
	case json.RawMessage:
		return Decode(v)
	case []byte:
		return Decode(v)
	case string, bool, float64, float32, int, int64, int32, uint, uint64, json.Number, []any:
		return analysis.Result{}, ErrMalformedInput
	}

	// Arbitrary structs and typed maps go through a JSON round trip.
	data, err := json.Marshal(raw)
	if err != nil {
		return analysis.Result{}, ErrMalformedInput
	}
	return Decode(data)
}

// Decode parses JSON text and sanitizes the decoded value.
func Decode(data []byte) (analysis.Result, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return analysis.Result{}, ErrMalformedInput
	}
	m, ok := v.(map[string]any)
	if !ok {
		return analysis.Result{}, ErrMalformedInput
	}
	return fromMap(m), nil
}

func fromMap(m map[string]any) analysis.Result {
	out := analysis.Result{
		Title:           str(m["title"]),
		Keys:            []analysis.Key{},
		Script:          []analysis.Scene{},
		Recommendations: []analysis.Recommendation{},
		IsDemoMode:      truthy(m["isDemoMode"]),
	}

	if orig, ok := m["original"].(map[string]any); ok {
		out.Original = analysis.Original{
			Transcription: str(orig["transcription"]),
			Translation:   str(orig["translation"]),
		}
	}

	for _, el := range list(m["keys"]) {
		o := obj(el)
		out.Keys = append(out.Keys, analysis.Key{
			Title:       str(o["title"]),
			Description: str(o["description"]),
		})
	}
	for _, el := range list(m["script"]) {
		o := obj(el)
		out.Script = append(out.Script, analysis.Scene{
			Time:   str(o["time"]),
			Visual: str(o["visual"]),
			Text:   str(o["text"]),
			Note:   str(o["note"]),
		})
	}
	for _, el := range list(m["recommendations"]) {
		o := obj(el)
		out.Recommendations = append(out.Recommendations, analysis.Recommendation{
			Category: str(o["category"]),
			Text:     str(o["text"]),
		})
	}
	return out
}

func fromResult(r analysis.Result) analysis.Result {
	out := analysis.Result{
		Title: Text(r.Title),
		Original: analysis.Original{
			Transcription: Text(r.Original.Transcription),
			Translation:   Text(r.Original.Translation),
		},
		Keys:            make([]analysis.Key, 0, len(r.Keys)),
		Script:          make([]analysis.Scene, 0, len(r.Script)),
		Recommendations: make([]analysis.Recommendation, 0, len(r.Recommendations)),
		IsDemoMode:      r.IsDemoMode,
	}
	for _, k := range r.Keys {
		out.Keys = append(out.Keys, analysis.Key{Title: Text(k.Title), Description: Text(k.Description)})
	}
	for _, s := range r.Script {
		out.Script = append(out.Script, analysis.Scene{
			Time:   Text(s.Time),
			Visual: Text(s.Visual),
			Text:   Text(s.Text),
			Note:   Text(s.Note),
		})
	}
	for _, rec := range r.Recommendations {
		out.Recommendations = append(out.Recommendations, analysis.Recommendation{
			Category: Text(rec.Category),
			Text:     Text(rec.Text),
		})
	}
	return out
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return Text(s)
	}
	return ""
}

func list(v any) []any {
	if a, ok := v.([]any); ok {
		return a
	}
	return nil
}

// obj yields an empty map for non-object elements, so every field of the
// resulting element ends up "".
func obj(v any) map[string]any {
	if o, ok := v.(map[string]any); ok {
		return o
	}
	return map[string]any{}
}

// truthy follows loose boolean coercion: false, 0, NaN, "" and null are
// false, everything else is true.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0 && !math.IsNaN(b)
	case int:
		return b != 0
	case string:
		return b != ""
	case json.Number:
		f, err := b.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}
