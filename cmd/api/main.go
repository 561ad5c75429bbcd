package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/reelscript/internal/application"
	appanalysis "github.com/bryanwahyu/reelscript/internal/application/analysis"
	appscripts "github.com/bryanwahyu/reelscript/internal/application/scripts"
	"github.com/bryanwahyu/reelscript/internal/config"
	"github.com/bryanwahyu/reelscript/internal/infra/ai/prompt"
	"github.com/bryanwahyu/reelscript/internal/infra/httpserver"
	"github.com/bryanwahyu/reelscript/internal/logging"
	"github.com/bryanwahyu/reelscript/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Debug().Fields(logging.SafeFields(cfg.Summary())).Msg("config loaded")

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	// database + repo
	repo, closeDB, err := openRepository(ctx, cfg, log, checkers)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database init error")
	}
	defer closeDB()

	// limiter store: redis kalau ada, selain itu memory
	store, closeStore := openLimitStore(ctx, cfg, log, checkers)
	defer closeStore()

	clock := application.SystemClock{}
	limits := application.NewLimits(store, clock, log)
	limits.Analysis.MaxRequests = cfg.Limits.AnalysisMax
	limits.Analysis.Window = cfg.Limits.AnalysisWindow
	limits.Save.MaxRequests = cfg.Limits.SaveMax
	limits.Save.Window = cfg.Limits.SaveWindow

	// init minio (optional)
	videos, err := openVideoStore(ctx, cfg, checkers)
	if err != nil {
		log.Fatal().Err(err).Msg("minio init error")
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.AI.Provider).Msg("ai client init error")
	}

	analysisSvc := &appanalysis.Service{
		Generator:    gen,
		Prober:       newProber(cfg),
		Limits:       limits,
		Demo:         prompt.DemoResult,
		DemoFallback: cfg.AI.DemoFallback,
		KeepUploads:  cfg.Minio.KeepUploads,
		MaxBytes:     cfg.Upload.MaxMB << 20,
		MaxDuration:  cfg.Upload.MaxDuration,
		Timeout:      cfg.AI.Timeout,
		Retry:        appanalysis.RetryPolicy{MaxTries: cfg.AI.Retries, Initial: cfg.AI.RetryInitial},
		Log:          log.With().Str("svc", "analysis").Logger(),
	}
	if videos != nil {
		analysisSvc.Videos = videos
	}

	scriptsSvc := &appscripts.Service{
		Repo:     repo,
		Limits:   limits,
		Clock:    clock,
		MaxSaved: cfg.Scripts.MaxSaved,
		Log:      log.With().Str("svc", "scripts").Logger(),
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(analysisSvc, scriptsSvc, limits, httpserver.Options{
		APIKeys:        cfg.Auth.APIKeys,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateStore:      store,
		RatePerMinute:  cfg.Server.RatePerMinute,
		Checkers:       checkers,
		MaxUploadBytes: cfg.Upload.MaxMB << 20,
		Log:            log.With().Str("svc", "http").Logger(),
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Info().Str("addr", addr).Str("db", cfg.Database.Driver).Str("ai", cfg.AI.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
