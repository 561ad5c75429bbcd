package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
	"github.com/bryanwahyu/reelscript/internal/infra/ai/prompt"
)

const (
	DefaultModel = "gemini-2.5-flash"
	// inlineLimit is the largest payload sent inline; bigger videos go
	// through the Files API.
	inlineLimit = 20 << 20
)

type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Language        string
	PollInterval    time.Duration
}

type Client struct {
	client *genai.Client
	opts   Options
}

func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxOutputTokens == 0 {
		opts.MaxOutputTokens = 8192
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	return &Client{client: cli, opts: opts}, nil
}

// Generate sends the video with the analysis prompt and returns the raw
// text of the first candidate.
func (c *Client) Generate(ctx context.Context, req analysis.GenerateRequest) (string, error) {
	videoPart, cleanup, err := c.videoPart(ctx, req)
	if err != nil {
		return "", mapError(err)
	}
	defer cleanup()

	parts := []*genai.Part{
		genai.NewPartFromText(prompt.GetSystemPrompt(c.opts.Language)),
		videoPart,
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.opts.Temperature),
		MaxOutputTokens: c.opts.MaxOutputTokens,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.Model, contents, cfg)
	if err != nil {
		return "", mapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", analysis.ErrBlocked
	}
	return resp.Text(), nil
}

func (c *Client) videoPart(ctx context.Context, req analysis.GenerateRequest) (*genai.Part, func(), error) {
	noop := func() {}
	if len(req.Data) > 0 && len(req.Data) <= inlineLimit {
		return genai.NewPartFromBytes(req.Data, req.MIMEType), noop, nil
	}
	if len(req.Data) == 0 {
		if req.URL == "" {
			return nil, noop, errors.New("gemini: no video data")
		}
		return genai.NewPartFromURI(req.URL, req.MIMEType), noop, nil
	}

	file, err := c.client.Files.Upload(ctx, bytes.NewReader(req.Data), &genai.UploadFileConfig{MIMEType: req.MIMEType})
	if err != nil {
		return nil, noop, fmt.Errorf("gemini: upload video: %w", err)
	}
	cleanup := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = c.client.Files.Delete(dctx, file.Name, nil)
	}
	file, err = c.waitForActive(ctx, file)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return genai.NewPartFromURI(file.URI, file.MIMEType), cleanup, nil
}

func (c *Client) waitForActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	for file.State != genai.FileStateActive {
		if file.State == genai.FileStateFailed {
			return nil, errors.New("gemini: video processing failed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.opts.PollInterval):
		}
		var err error
		file, err = c.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, err
		}
	}
	return file, nil
}

// mapError turns provider quota responses into analysis.ErrQuotaExceeded.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", analysis.ErrQuotaExceeded, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", analysis.ErrQuotaExceeded, apiErrPtr.Message)
	}
	return err
}
