package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/reelscript/internal/client"
	"github.com/bryanwahyu/reelscript/internal/logging"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

var (
	version = "0.1.0"

	// Global flags
	serverURL string
	apiKey    string
	stateDir  string
	logLevel  string

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reelctl",
	Short: "Analyse short videos and manage saved scripts",
	Long: `reelctl uploads short-form videos to a reelscript server, prints the
AI breakdown (hook, scenes, recommendations) and manages saved scripts.

Analyses and saves are also limited locally, the same way the web client
does it, so a burst of requests is stopped before it reaches the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(logLevel, "console")
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func init() {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".reelctl.env"))
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("REELCTL_SERVER", "http://localhost:8080"), "reelscript API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("REELCTL_API_KEY"), "API key (env REELCTL_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", defaultStateDir(), "directory for local limiter state")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reelctl"
	}
	return filepath.Join(home, ".reelctl")
}

func apiClient() *client.Client {
	return client.New(serverURL, apiKey)
}

// localLimiter builds a limiter persisted under the state dir.
func localLimiter(cfg ratelimit.Config) (*ratelimit.Limiter, error) {
	store, err := ratelimit.NewFileStore(filepath.Join(stateDir, "limits"))
	if err != nil {
		return nil, err
	}
	return ratelimit.New(cfg, store, ratelimit.WithLogger(log))
}
