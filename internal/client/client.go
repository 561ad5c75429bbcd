// Package client talks to the reelscript HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
	"github.com/bryanwahyu/reelscript/internal/domain/scripts"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: HTTP %d", e.Status)
	}
	return fmt.Sprintf("api: %s (HTTP %d)", e.Message, e.Status)
}

// LimitStatus mirrors the server's limiter snapshot.
type LimitStatus struct {
	Current   int   `json:"currentRequests"`
	Max       int   `json:"maxRequests"`
	Remaining int   `json:"remainingRequests"`
	WindowMs  int64 `json:"windowMs"`
	ResetTime int64 `json:"resetTime"`
}

func (s LimitStatus) ResetAt() time.Time { return time.UnixMilli(s.ResetTime) }

type Limits struct {
	Analysis LimitStatus `json:"analysis"`
	Save     LimitStatus `json:"save"`
}

// Analyze uploads the video at path.
func (c *Client) Analyze(ctx context.Context, path string) (analysis.Result, error) {
	var res analysis.Result
	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", mimeFor(path))
	part, err := mw.CreatePart(h)
	if err != nil {
		return res, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return res, err
	}

	err = c.do(ctx, http.MethodPost, "/v1/analyze", &body, mw.FormDataContentType(), &res)
	return res, err
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}

func (c *Client) Limits(ctx context.Context) (Limits, error) {
	var l Limits
	err := c.do(ctx, http.MethodGet, "/v1/limits", nil, "", &l)
	return l, err
}

func (c *Client) ResetLimits(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/limits", nil, "", nil)
}

func (c *Client) ListScripts(ctx context.Context, query string) ([]scripts.SavedScript, error) {
	p := "/v1/scripts"
	if query != "" {
		p += "?q=" + url.QueryEscape(query)
	}
	var out []scripts.SavedScript
	err := c.do(ctx, http.MethodGet, p, nil, "", &out)
	return out, err
}

func (c *Client) GetScript(ctx context.Context, id string) (scripts.SavedScript, error) {
	var s scripts.SavedScript
	err := c.do(ctx, http.MethodGet, "/v1/scripts/"+url.PathEscape(id), nil, "", &s)
	return s, err
}

// ScriptText fetches the plain-text rendering, format "script" or "full".
func (c *Client) ScriptText(ctx context.Context, id, format string) (string, error) {
	var buf bytes.Buffer
	p := "/v1/scripts/" + url.PathEscape(id) + "/text?format=" + url.QueryEscape(format)
	err := c.do(ctx, http.MethodGet, p, nil, "", &buf)
	return buf.String(), err
}

// SaveScript posts raw JSON, typically a result saved to disk by analyze.
func (c *Client) SaveScript(ctx context.Context, raw []byte) (scripts.SavedScript, error) {
	var s scripts.SavedScript
	err := c.do(ctx, http.MethodPost, "/v1/scripts", bytes.NewReader(raw), "application/json", &s)
	return s, err
}

func (c *Client) DeleteScript(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/scripts/"+url.PathEscape(id), nil, "", nil)
}

func (c *Client) DeleteAllScripts(ctx context.Context) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, "/v1/scripts", nil, "", &out)
	return out.Deleted, err
}

func (c *Client) Quota(ctx context.Context) (scripts.Quota, error) {
	var q scripts.Quota
	err := c.do(ctx, http.MethodGet, "/v1/scripts/quota", nil, "", &q)
	return q, err
}

// do sends the request and decodes into out. out may be nil or a
// *bytes.Buffer for raw bodies. A 429 with Retry-After from a limiter
// comes back as *analysis.ThrottledError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
		if resp.StatusCode == http.StatusTooManyRequests && apiErr.Code == "throttled" {
			secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
			return &analysis.ThrottledError{
				Message: apiErr.Message,
				ResetAt: time.Now().Add(time.Duration(secs) * time.Second),
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests && apiErr.Code == "ai_quota" {
			return fmt.Errorf("%w: %s", analysis.ErrQuotaExceeded, apiErr.Message)
		}
		if resp.StatusCode == http.StatusNotFound {
			return scripts.ErrNotFound
		}
		return apiErr
	}

	switch o := out.(type) {
	case nil:
		return nil
	case *bytes.Buffer:
		_, err = io.Copy(o, resp.Body)
		return err
	default:
		return json.NewDecoder(resp.Body).Decode(out)
	}
}
