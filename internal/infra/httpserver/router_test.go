package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/reelscript/internal/application"
	appanalysis "github.com/bryanwahyu/reelscript/internal/application/analysis"
	appscripts "github.com/bryanwahyu/reelscript/internal/application/scripts"
	domain "github.com/bryanwahyu/reelscript/internal/domain/analysis"
	domscripts "github.com/bryanwahyu/reelscript/internal/domain/scripts"
	"github.com/bryanwahyu/reelscript/internal/infra/db/sqlite"
	"github.com/bryanwahyu/reelscript/internal/middleware"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

const reply = `{"title":"Desk <i>Setup</i>","original":{"transcription":"hi","translation":"hi"},` +
	`"keys":[{"title":"Hook","description":"fast"}],` +
	`"script":[{"time":"0-3 sec","visual":"desk","text":"look","note":"pan"}],` +
	`"recommendations":[{"category":"Music","text":"lo-fi"}]}`

type generatorFunc func(ctx context.Context, req domain.GenerateRequest) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	return f(ctx, req)
}

type testServer struct {
	*httptest.Server
	gen func(ctx context.Context, req domain.GenerateRequest) (string, error)
}

func newTestServer(t *testing.T, keys map[string]string) *testServer {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := &testServer{gen: func(context.Context, domain.GenerateRequest) (string, error) { return reply, nil }}
	limits := application.NewLimits(ratelimit.NewMemoryStore(), application.SystemClock{}, zerolog.Nop())

	analysisSvc := &appanalysis.Service{
		Generator: generatorFunc(func(ctx context.Context, req domain.GenerateRequest) (string, error) {
			return ts.gen(ctx, req)
		}),
		Limits: limits,
		Retry:  appanalysis.RetryPolicy{MaxTries: 1, Initial: time.Millisecond},
		Log:    zerolog.Nop(),
	}
	scriptsSvc := &appscripts.Service{
		Repo:     sqlite.NewScriptRepository(db),
		Limits:   limits,
		Clock:    application.SystemClock{},
		MaxSaved: 2,
		Log:      zerolog.Nop(),
	}

	h := NewRouter(analysisSvc, scriptsSvc, limits, Options{APIKeys: keys, Log: zerolog.Nop()})
	ts.Server = httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func videoForm(t *testing.T, mime string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="video"; filename="my clip.mp4"`)
	h.Set("Content-Type", mime)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake video bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) middleware.ErrorBody {
	t.Helper()
	var body middleware.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestAnalyzeReturnsSanitizedResult(t *testing.T) {
	ts := newTestServer(t, nil)
	body, ct := videoForm(t, "video/mp4")

	resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res domain.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "Desk Setup", res.Title)
	assert.Len(t, res.Script, 1)
	assert.False(t, res.IsDemoMode)
}

func TestAnalyzeRejectsNonVideo(t *testing.T) {
	ts := newTestServer(t, nil)
	body, ct := videoForm(t, "image/png")

	resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", decodeError(t, resp).Code)
}

func TestAnalyzeThrottledAfterFive(t *testing.T) {
	ts := newTestServer(t, nil)
	for i := 0; i < 5; i++ {
		body, ct := videoForm(t, "video/mp4")
		resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	body, ct := videoForm(t, "video/mp4")
	resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	retry, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 15*60, retry, 2)

	e := decodeError(t, resp)
	assert.Equal(t, "throttled", e.Code)
	assert.Contains(t, e.Error, "Request limit reached (5 per 15 min)")

	resp = ts.do(t, http.MethodGet, "/v1/limits", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.EqualValues(t, 0, st["analysis"]["remainingRequests"])
	assert.EqualValues(t, 10, st["save"]["remainingRequests"])
}

func TestAnalyzeQuotaMapsTo429(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.gen = func(context.Context, domain.GenerateRequest) (string, error) {
		return "", domain.ErrQuotaExceeded
	}
	body, ct := videoForm(t, "video/mp4")

	resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "ai_quota", decodeError(t, resp).Code)
}

func TestAnalyzeUnusableReplyIsBadGateway(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.gen = func(context.Context, domain.GenerateRequest) (string, error) {
		return `{"title": broken}`, nil
	}
	body, ct := videoForm(t, "video/mp4")

	resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "ai_bad_reply", decodeError(t, resp).Code)
}

func TestAnalyzeBlockedIsBadGateway(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.gen = func(context.Context, domain.GenerateRequest) (string, error) {
		return "", domain.ErrBlocked
	}
	body, ct := videoForm(t, "video/mp4")

	resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	e := decodeError(t, resp)
	assert.Equal(t, "ai_bad_reply", e.Code)
	assert.Contains(t, e.Error, "safety filters")
}

func TestAnalyzeInternalError(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.gen = func(context.Context, domain.GenerateRequest) (string, error) {
		return "", errors.New("boom")
	}
	body, ct := videoForm(t, "video/mp4")

	resp := ts.do(t, http.MethodPost, "/v1/analyze", body, ct)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestScriptsLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(t, http.MethodPost, "/v1/scripts", []byte(reply), "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var saved domscripts.SavedScript
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, "Desk Setup", saved.Result.Title)
	id := string(saved.ID)

	resp = ts.do(t, http.MethodGet, "/v1/scripts?q=desk", nil, "")
	var list []domscripts.SavedScript
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 1)

	resp = ts.do(t, http.MethodGet, "/v1/scripts?q=nothing", nil, "")
	list = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list)

	resp = ts.do(t, http.MethodGet, "/v1/scripts/"+id+"/text?format=script", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))

	resp = ts.do(t, http.MethodGet, "/v1/scripts/"+id+"/text?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/v1/scripts/quota", nil, "")
	var q domscripts.Quota
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	assert.Equal(t, domscripts.Quota{Count: 1, Max: 2, Remaining: 1}, q)

	resp = ts.do(t, http.MethodPost, "/v1/scripts", []byte(reply), "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, "/v1/scripts", []byte(reply), "application/json")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/v1/scripts/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/v1/scripts/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/v1/scripts", nil, "")
	var del map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&del))
	assert.Equal(t, 1, del["deleted"])
}

func TestSaveRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.do(t, http.MethodPost, "/v1/scripts", []byte(`[1,2,3]`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScriptIDValidated(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.do(t, http.MethodGet, "/v1/scripts/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequiredWhenKeysConfigured(t *testing.T) {
	ts := newTestServer(t, map[string]string{"alice": "secret"})

	resp := ts.do(t, http.MethodGet, "/v1/limits", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/limits", nil)
	req.Header.Set("Authorization", "Bearer secret")
	r2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer r2.Body.Close()
	assert.Equal(t, http.StatusOK, r2.StatusCode)
}
