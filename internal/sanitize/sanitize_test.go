package sanitize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
)

func TestTextStripsAndEscapes(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"plain":                            "plain",
		"A&B":                              "A&B",
		"<b>close</b> up":                  "close up",
		`say "hi"`:                         "say &quot;hi&quot;",
		"it's":                             "it&#x27;s",
		"a/b":                              "a&#x2F;b",
		"1 < 2":                            "1 &lt; 2",
		"<script>alert(1)</script>":        "alert(1)",
		"&lt;img src=x onerror=alert(1)&gt;": "",
		"fish &amp; chips":                 "fish & chips",
		"&copy 2024":                       "© 2024",
		"AT&T; R&D":                       "AT&T; R&D",
		"&#65;":                            "A",
	}
	for in, want := range cases {
		assert.Equal(t, want, Text(in), "input %q", in)
	}
}

func TestTextIsIdempotent(t *testing.T) {
	inputs := []string{
		"A&B",
		"&amp;amp;",
		"&&&",
		"&lt;&gt;",
		"&#x3C;script&#x3E;",
		"<<b>>",
		"x < y > z",
		"&#5",
		"&#5 tail",
		"&#x&#x2F;",
		"&ampB",
		"Tom & Jerry's \"show\" / <i>ep</i>",
		"line1\n<br/>line2",
		"&notin; &notit; &not",
		"<a href='javascript:alert(1)'>x</a>",
		"unterminated <b",
		"🎬 scene & <em>cut</em>",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
		assert.NotContains(t, once, "<")
		assert.NotContains(t, once, ">")
		assert.NotContains(t, once, `"`)
		assert.NotContains(t, once, "'")
	}
}

func TestSanitizeScenario(t *testing.T) {
	raw := map[string]any{
		"title": "A&B",
		"script": []any{
			map[string]any{"time": "0-3", "visual": "<b>close</b> up", "text": "hi", "note": "n"},
		},
	}
	got, err := Sanitize(raw)
	require.NoError(t, err)
	assert.Equal(t, "A&B", got.Title)
	require.Len(t, got.Script, 1)
	assert.Equal(t, "close up", got.Script[0].Visual)
	assert.Equal(t, "0-3", got.Script[0].Time)
	assert.NotNil(t, got.Keys)
	assert.NotNil(t, got.Recommendations)
}

func TestSanitizeNormalizesShapes(t *testing.T) {
	raw := map[string]any{
		"title":           42,
		"original":        "not an object",
		"keys":            "nope",
		"script":          []any{"oops", 7, map[string]any{"time": 1, "visual": "v"}},
		"recommendations": nil,
		"isDemoMode":      "yes",
	}
	got, err := Sanitize(raw)
	require.NoError(t, err)

	assert.Equal(t, "", got.Title)
	assert.Equal(t, analysis.Original{}, got.Original)
	assert.Empty(t, got.Keys)
	assert.NotNil(t, got.Keys)
	require.Len(t, got.Script, 3)
	assert.Equal(t, analysis.Scene{}, got.Script[0])
	assert.Equal(t, analysis.Scene{}, got.Script[1])
	assert.Equal(t, analysis.Scene{Visual: "v"}, got.Script[2])
	assert.NotNil(t, got.Recommendations)
	assert.True(t, got.IsDemoMode)
}

func TestSanitizeDemoFlagTruthiness(t *testing.T) {
	for v, want := range map[any]bool{
		true: true, false: false, float64(0): false, float64(1): true, "": false, "x": true,
	} {
		got, err := Sanitize(map[string]any{"isDemoMode": v})
		require.NoError(t, err)
		assert.Equal(t, want, got.IsDemoMode, "value %v", v)
	}
	got, err := Sanitize(map[string]any{})
	require.NoError(t, err)
	assert.False(t, got.IsDemoMode)
}

func TestSanitizeRejectsNonObjects(t *testing.T) {
	var nilResult *analysis.Result
	for _, raw := range []any{nil, 42, "text", true, []any{map[string]any{}}, nilResult, json.RawMessage(`[1,2]`), []byte(`{bad`)} {
		_, err := Sanitize(raw)
		assert.ErrorIs(t, err, ErrMalformedInput, "input %#v", raw)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	raw := map[string]any{
		"title":    "Tom & Jerry's <i>best</i> &amp; more",
		"original": map[string]any{"transcription": "say \"hello\"", "translation": "a/b"},
		"keys":     []any{map[string]any{"title": "Hook", "description": "<b>fast</b> & loud"}},
		"script": []any{
			map[string]any{"time": "0-3 sec", "visual": "close-up", "text": "&lt;hey&gt;", "note": "&#x27;"},
		},
		"recommendations": []any{map[string]any{"category": "Music", "text": "lo-fi"}},
		"isDemoMode":      1.0,
	}
	once, err := Sanitize(raw)
	require.NoError(t, err)
	twice, err := Sanitize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	thrice, err := Sanitize(&twice)
	require.NoError(t, err)
	assert.Equal(t, once, thrice)
}

func TestSanitizeStructRoundTrip(t *testing.T) {
	type custom struct {
		Title string `json:"title"`
	}
	got, err := Sanitize(custom{Title: "<b>x</b>"})
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
}

func TestDecode(t *testing.T) {
	got, err := Decode([]byte(`{"title":"T","keys":[{"title":"k","description":"d"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, []analysis.Key{{Title: "k", Description: "d"}}, got.Keys)
}

func TestURL(t *testing.T) {
	assert.Equal(t, "", URL("javascript:alert(1)"))
	assert.Equal(t, "", URL("  DATA:text/html;base64,xx"))
	assert.Equal(t, "", URL("vbscript:x"))
	assert.Equal(t, "", URL("file:///etc/passwd"))
	assert.Equal(t, "", URL("   "))
	assert.Equal(t, "https://example.com/a", URL("https://example.com/a"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "my_video.mp4", Filename("my video.mp4"))
	assert.Equal(t, "._._etc_passwd", Filename("../../etc/passwd"))
	assert.Equal(t, "видео.mov", Filename("видео.mov"))
	assert.Len(t, []rune(Filename(strings.Repeat("a", 400))), 255)
}

func TestIsVideoMIME(t *testing.T) {
	assert.True(t, IsVideoMIME("video/mp4"))
	assert.True(t, IsVideoMIME("video/quicktime"))
	assert.True(t, IsVideoMIME("VIDEO/WEBM; codecs=vp9"))
	assert.False(t, IsVideoMIME("video/x-msvideo"))
	assert.False(t, IsVideoMIME(""))
}
