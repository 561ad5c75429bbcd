package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/reelscript/internal/sanitize"
)

func TestSystemPromptMentionsSchemaAndLanguage(t *testing.T) {
	p := GetSystemPrompt("Russian")
	assert.Contains(t, p, `"recommendations"`)
	assert.Contains(t, p, "into Russian")
	assert.Contains(t, GetSystemPrompt(""), "into English")
}

func TestUserPromptCarriesURL(t *testing.T) {
	assert.Contains(t, GetUserPrompt("https://x/v.mp4"), "https://x/v.mp4")
}

func TestDemoResultIsAlreadyClean(t *testing.T) {
	demo := DemoResult()
	assert.True(t, demo.IsDemoMode)
	assert.NotEmpty(t, demo.Script)

	clean, err := sanitize.Sanitize(demo)
	require.NoError(t, err)
	assert.Equal(t, demo, clean)
}
