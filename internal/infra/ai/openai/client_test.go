package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: "gpt-4o"}
}

func TestGenerateReturnsContent(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": `{"title":"x"}`}}},
		})
	})

	out, err := c.Generate(context.Background(), analysis.GenerateRequest{URL: "https://minio/v.mp4", MIMEType: "video/mp4"})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, out)
	assert.Equal(t, "gpt-4o", gotBody["model"])
	assert.EqualValues(t, maxTokens, gotBody["max_tokens"])
}

func TestGenerateMapsQuota(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	})

	_, err := c.Generate(context.Background(), analysis.GenerateRequest{URL: "https://minio/v.mp4"})
	assert.ErrorIs(t, err, analysis.ErrQuotaExceeded)
}

func TestGenerateNeedsURL(t *testing.T) {
	c := NewClient("k", "", "")
	_, err := c.Generate(context.Background(), analysis.GenerateRequest{Data: []byte("x")})
	assert.Error(t, err)
}
