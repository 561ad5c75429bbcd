package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/reelscript/internal/application"
	appanalysis "github.com/bryanwahyu/reelscript/internal/application/analysis"
	appscripts "github.com/bryanwahyu/reelscript/internal/application/scripts"
	domain "github.com/bryanwahyu/reelscript/internal/domain/analysis"
	domscripts "github.com/bryanwahyu/reelscript/internal/domain/scripts"
	"github.com/bryanwahyu/reelscript/internal/middleware"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
	"github.com/bryanwahyu/reelscript/internal/sanitize"
)

// Options configures the middleware stack in front of the API.
type Options struct {
	APIKeys        map[string]string // user id -> key; empty disables auth
	CORSOrigins    []string
	RateStore      ratelimit.Store // per-user HTTP throttle; nil disables it
	RatePerMinute  int
	Checkers       map[string]middleware.HealthChecker
	MaxUploadBytes int64
	Log            zerolog.Logger
}

type Router struct {
	analysisSvc *appanalysis.Service
	scriptsSvc  *appscripts.Service
	limits      *application.Limits
	maxUpload   int64
	log         zerolog.Logger
}

// errBadRequest marks request-shape problems found by handlers.
var errBadRequest = errors.New("bad request")

func NewRouter(analysisSvc *appanalysis.Service, scriptsSvc *appscripts.Service, limits *application.Limits, opts Options) http.Handler {
	r := &Router{
		analysisSvc: analysisSvc,
		scriptsSvc:  scriptsSvc,
		limits:      limits,
		maxUpload:   opts.MaxUploadBytes,
		log:         opts.Log,
	}
	if r.maxUpload <= 0 {
		r.maxUpload = appanalysis.DefaultMaxBytes
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	mux.Use(middleware.Logging(opts.Log))
	if opts.RateStore != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.RateStore, opts.RatePerMinute, time.Minute, opts.Log))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/limits", r.wrap(r.handleLimits))
		rt.Delete("/limits", r.wrap(r.handleResetLimits))

		rt.Get("/scripts", r.wrap(r.handleListScripts))
		rt.Post("/scripts", r.wrap(r.handleSaveScript))
		rt.Delete("/scripts", r.wrap(r.handleDeleteAll))
		rt.Get("/scripts/quota", r.wrap(r.handleQuota))
		rt.Get("/scripts/{id}", r.wrap(r.handleGetScript))
		rt.Delete("/scripts/{id}", r.wrap(r.handleDeleteScript))
		rt.Get("/scripts/{id}/text", r.wrap(r.handleScriptText))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var throttled *domain.ThrottledError
		switch {
		case errors.As(err, &throttled):
			w.Header().Set("Retry-After", strconv.Itoa(throttled.RetryAfter(time.Now())))
			middleware.WriteError(w, http.StatusTooManyRequests, throttled.Message, "throttled")
		case errors.Is(err, domain.ErrQuotaExceeded):
			middleware.WriteError(w, http.StatusTooManyRequests, "ai quota exceeded, try again later", "ai_quota")
		case errors.Is(err, domain.ErrBadReply), errors.Is(err, domain.ErrBlocked):
			r.log.Warn().Err(err).Str("path", req.URL.Path).Msg("ai reply rejected")
			middleware.WriteError(w, http.StatusBadGateway, err.Error(), "ai_bad_reply")
		case errors.Is(err, domscripts.ErrNotFound):
			middleware.WriteError(w, http.StatusNotFound, "not found", "not_found")
		case errors.Is(err, domscripts.ErrLimitReached):
			middleware.WriteError(w, http.StatusConflict, err.Error(), "limit_reached")
		case errors.Is(err, domain.ErrInvalidVideo),
			errors.Is(err, sanitize.ErrMalformedInput),
			errors.Is(err, domscripts.ErrBadFormat),
			errors.Is(err, errBadRequest):
			middleware.WriteError(w, http.StatusBadRequest, err.Error(), "bad_request")
		default:
			r.log.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
			middleware.WriteError(w, http.StatusInternalServerError, "internal error", "internal")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/analyze (multipart, field "video")
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())

	// sedikit lebih besar dari limit supaya pesan error datang dari service
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload+(1<<20))
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w: file exceeds %d MB", domain.ErrInvalidVideo, r.maxUpload>>20)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("video")
	if err != nil {
		return fmt.Errorf("%w: video field is required", errBadRequest)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	middleware.IncrementAnalyses()
	res, err := r.analysisSvc.Process(req.Context(), domain.Upload{
		UserID:   user,
		Filename: sanitize.Filename(header.Filename),
		MIMEType: mime,
		Data:     data,
	})
	if err != nil {
		middleware.IncrementAnalysesFail()
		return err
	}
	if res.IsDemoMode {
		middleware.IncrementDemoFallbacks()
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/limits
func (r *Router) handleLimits(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	return writeJSON(w, http.StatusOK, r.limits.Status(req.Context(), user))
}

// DELETE /v1/limits
func (r *Router) handleResetLimits(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	r.limits.Reset(req.Context(), user)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/scripts?q=
func (r *Router) handleListScripts(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	q, err := middleware.ValidateQuery(req.URL.Query().Get("q"))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	list, err := r.scriptsSvc.List(req.Context(), user, q)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domscripts.SavedScript{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/scripts
// Body: an analysis result as returned by /v1/analyze
func (r *Router) handleSaveScript(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	saved, err := r.scriptsSvc.Save(req.Context(), user, json.RawMessage(body))
	if err != nil {
		return err
	}
	middleware.IncrementScriptsSaved()
	return writeJSON(w, http.StatusCreated, saved)
}

// DELETE /v1/scripts
func (r *Router) handleDeleteAll(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	n, err := r.scriptsSvc.DeleteAll(req.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// GET /v1/scripts/quota
func (r *Router) handleQuota(w http.ResponseWriter, req *http.Request) error {
	user := middleware.GetUserFromContext(req.Context())
	q, err := r.scriptsSvc.Quota(req.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, q)
}

func scriptID(req *http.Request) (domscripts.ScriptID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScriptID(id); err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return domscripts.ScriptID(id), nil
}

// GET /v1/scripts/{id}
func (r *Router) handleGetScript(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	s, err := r.scriptsSvc.Get(req.Context(), middleware.GetUserFromContext(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, s)
}

// DELETE /v1/scripts/{id}
func (r *Router) handleDeleteScript(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	if err := r.scriptsSvc.Delete(req.Context(), middleware.GetUserFromContext(req.Context()), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/scripts/{id}/text?format=script|full
func (r *Router) handleScriptText(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	format, err := middleware.ValidateFormat(req.URL.Query().Get("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", domscripts.ErrBadFormat, err)
	}
	text, err := r.scriptsSvc.Text(req.Context(), middleware.GetUserFromContext(req.Context()), id, format)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err = io.WriteString(w, text)
	return err
}
