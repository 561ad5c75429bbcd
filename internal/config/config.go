package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/reelscript/internal/middleware"
)

type Config struct {
	Server struct {
		Port          int           `yaml:"port"`
		ReadTimeout   time.Duration `yaml:"readTimeout"`
		WriteTimeout  time.Duration `yaml:"writeTimeout"`
		CORSOrigins   []string      `yaml:"corsOrigins"`
		RatePerMinute int           `yaml:"ratePerMinute"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | sqlite
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite file
	} `yaml:"database"`

	Minio struct {
		Enabled     bool   `yaml:"enabled"`
		Endpoint    string `yaml:"endpoint"`
		AccessKey   string `yaml:"accessKey"`
		SecretKey   string `yaml:"secretKey"`
		BucketName  string `yaml:"bucketName"`
		Region      string `yaml:"region"`
		UseSSL      bool   `yaml:"useSSL"`
		KeepUploads bool   `yaml:"keepUploads"`
	} `yaml:"minio"`

	Redis struct {
		URL    string `yaml:"url"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	AI struct {
		Provider        string        `yaml:"provider"` // gemini | openai
		GeminiAPIKey    string        `yaml:"geminiApiKey"`
		OpenAIAPIKey    string        `yaml:"openaiApiKey"`
		Model           string        `yaml:"model"`
		Language        string        `yaml:"language"`
		Temperature     float32       `yaml:"temperature"`
		MaxOutputTokens int32         `yaml:"maxOutputTokens"`
		Timeout         time.Duration `yaml:"timeout"`
		Retries         int           `yaml:"retries"`
		RetryInitial    time.Duration `yaml:"retryInitial"`
		DemoFallback    bool          `yaml:"demoFallback"`
		RequestsPerMin  int           `yaml:"requestsPerMinute"` // outbound pacing, 0 disables
	} `yaml:"ai"`

	Limits struct {
		AnalysisMax    int           `yaml:"analysisMax"`
		AnalysisWindow time.Duration `yaml:"analysisWindow"`
		SaveMax        int           `yaml:"saveMax"`
		SaveWindow     time.Duration `yaml:"saveWindow"`
	} `yaml:"limits"`

	Upload struct {
		MaxMB       int64         `yaml:"maxMB"`
		MaxDuration time.Duration `yaml:"maxDuration"`
		FFProbe     string        `yaml:"ffprobe"`      // binary path, empty disables probing
		FFProbeImg  string        `yaml:"ffprobeImage"` // run ffprobe via docker
	} `yaml:"upload"`

	Scripts struct {
		MaxSaved int `yaml:"maxSaved"`
	} `yaml:"scripts"`

	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"` // user id -> key
	} `yaml:"auth"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console | json
	} `yaml:"logging"`
}

// Default returns a config that runs locally with SQLite, in-memory limits
// and Gemini.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 60 * time.Second
	c.Server.WriteTimeout = 5 * time.Minute
	c.Server.RatePerMinute = 120

	c.Database.Driver = "sqlite"
	c.Database.Path = "data/reelscript.db"
	c.Database.SSLMode = "disable"

	c.Minio.BucketName = "reelscript-videos"
	c.Redis.Prefix = "reelscript:"

	c.AI.Provider = "gemini"
	c.AI.Language = "English"
	c.AI.Temperature = 0.7
	c.AI.MaxOutputTokens = 8192
	c.AI.Timeout = 3 * time.Minute
	c.AI.Retries = 3
	c.AI.RetryInitial = time.Second
	c.AI.DemoFallback = true
	c.AI.RequestsPerMin = 10

	c.Limits.AnalysisMax = 5
	c.Limits.AnalysisWindow = 15 * time.Minute
	c.Limits.SaveMax = 10
	c.Limits.SaveWindow = 5 * time.Minute

	c.Upload.MaxMB = 100
	c.Upload.MaxDuration = 3 * time.Minute
	c.Scripts.MaxSaved = 30

	c.Logging.Level = "info"
	c.Logging.Format = "console"
	return &c
}

// Load baca .env, file config.yaml (boleh tidak ada), lalu override dari env
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.AI.GeminiAPIKey = v
	}
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.AI.OpenAIAPIKey = v
	}
	if v := getenv("REELSCRIPT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REELSCRIPT_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("REELSCRIPT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("REELSCRIPT_DB_DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for %s", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unknown database.driver %q (mysql, postgres, sqlite)", c.Database.Driver)
	}
	switch c.AI.Provider {
	case "gemini":
	case "openai":
		if !c.Minio.Enabled {
			return errors.New("ai.provider openai reads videos by URL, enable minio")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q (gemini, openai)", c.AI.Provider)
	}
	if c.Limits.AnalysisMax <= 0 || c.Limits.AnalysisWindow <= 0 {
		return errors.New("limits.analysisMax and limits.analysisWindow must be positive")
	}
	if c.Limits.SaveMax <= 0 || c.Limits.SaveWindow <= 0 {
		return errors.New("limits.saveMax and limits.saveWindow must be positive")
	}
	// user ids end up in limiter keys and object paths
	for user, key := range c.Auth.APIKeys {
		if err := middleware.ValidateUserID(user); err != nil {
			return fmt.Errorf("auth.apiKeys %q: %w", user, err)
		}
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("auth.apiKeys %q: empty key", user)
		}
	}
	return nil
}

// Summary is the effective config as log fields. Credentials are included
// under their own names; pass it through logging.SafeFields before logging.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"port":           c.Server.Port,
		"dbDriver":       c.Database.Driver,
		"dbHost":         c.Database.Host,
		"dbPassword":     c.Database.Password,
		"minioEnabled":   c.Minio.Enabled,
		"minioAccessKey": c.Minio.AccessKey,
		"minioSecretKey": c.Minio.SecretKey,
		"redis":          c.Redis.URL != "",
		"aiProvider":     c.AI.Provider,
		"aiModel":        c.AI.Model,
		"aiApiKey":       c.APIKey(),
		"apiUsers":       len(c.Auth.APIKeys),
	}
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.AI.Provider == "openai" {
		return c.AI.OpenAIAPIKey
	}
	return c.AI.GeminiAPIKey
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
