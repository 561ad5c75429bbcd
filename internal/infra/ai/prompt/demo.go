package prompt

import "github.com/bryanwahyu/reelscript/internal/domain/analysis"

// DemoResult is a fixed sample analysis served when the AI backend is
// unavailable and demo fallback is enabled.
func DemoResult() analysis.Result {
	return analysis.Result{
		Title: "Morning Energy Hack",
		Original: analysis.Original{
			Transcription: "Stop scrolling! Here is the one thing I do every morning that changed everything. Cold water, thirty seconds, no excuses.",
			Translation:   "Stop scrolling! Here is the one thing I do every morning that changed everything. Cold water, thirty seconds, no excuses.",
		},
		Keys: []analysis.Key{
			{Title: "Hook", Description: "A direct command in the first second stops the scroll."},
			{Title: "Structure", Description: "Problem, single tip, call to action in under 20 seconds."},
			{Title: "Delivery", Description: "Fast pace and confident tone keep retention high."},
			{Title: "Visuals", Description: "Jump cuts every 2-3 seconds and close framing."},
			{Title: "Audio", Description: "Trending upbeat track with a sound accent on the reveal."},
		},
		Script: []analysis.Scene{
			{Time: "0-3 sec", Visual: "Close-up, looking straight into the camera", Text: "Stop scrolling!", Note: "The hook must land before the viewer swipes."},
			{Time: "3-8 sec", Visual: "Medium shot in the bathroom", Text: "This one habit changed my mornings.", Note: "Promise a result to build curiosity."},
			{Time: "8-15 sec", Visual: "Demonstration, splash of cold water", Text: "Cold water, thirty seconds, no excuses.", Note: "Show, do not tell."},
			{Time: "15-20 sec", Visual: "Close-up with a smile, text overlay", Text: "Try it tomorrow and tell me how it went.", Note: "A call to action drives comments."},
		},
		Recommendations: []analysis.Recommendation{
			{Category: "Voice", Text: "Speak 10-15% faster than normal and stress the key words."},
			{Category: "Music", Text: "Use an energetic trending track at low volume under the voice."},
			{Category: "AI avatar", Text: "Keep gestures minimal and let subtitles carry the rhythm."},
			{Category: "Editing", Text: "Cut on every sentence and add a zoom on the reveal."},
		},
		IsDemoMode: true,
	}
}
