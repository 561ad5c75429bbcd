package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/reelscript/internal/logging"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 5, c.Limits.AnalysisMax)
	assert.Equal(t, 15*time.Minute, c.Limits.AnalysisWindow)
	assert.Equal(t, 10, c.Limits.SaveMax)
	assert.Equal(t, 5*time.Minute, c.Limits.SaveWindow)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Database.Driver)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: 9000
database:
  driver: mysql
  host: db
  port: 3306
  user: app
  password: pw
  name: reels
limits:
  analysisWindow: 10m
auth:
  apiKeys:
    alice: k1
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("REELSCRIPT_PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "g-key")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, c.Server.Port)
	assert.Equal(t, 10*time.Minute, c.Limits.AnalysisWindow)
	assert.Equal(t, 5, c.Limits.AnalysisMax)
	assert.Equal(t, "g-key", c.APIKey())
	assert.Equal(t, "k1", c.Auth.APIKeys["alice"])
	assert.Equal(t, "app:pw@tcp(db:3306)/reels?parseTime=true&charset=utf8mb4&loc=UTC", c.MySQLDSN())
}

func TestValidateRejects(t *testing.T) {
	c := Default()
	c.Database.Driver = "oracle"
	assert.Error(t, c.Validate())

	c = Default()
	c.AI.Provider = "openai"
	assert.Error(t, c.Validate(), "openai without object storage")

	c = Default()
	c.Database.Driver = "postgres"
	assert.Error(t, c.Validate())
}

func TestBadPortEnv(t *testing.T) {
	c := Default()
	err := c.applyEnv(func(k string) string {
		if k == "REELSCRIPT_PORT" {
			return "http"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestValidateRejectsUnsafeUserIDs(t *testing.T) {
	for _, user := range []string{"alice:admin", "bob/x", "", "has space"} {
		c := Default()
		c.Auth.APIKeys = map[string]string{user: "k"}
		assert.Error(t, c.Validate(), "user %q", user)
	}

	c := Default()
	c.Auth.APIKeys = map[string]string{"team_a-1": "k"}
	assert.NoError(t, c.Validate())

	c.Auth.APIKeys = map[string]string{"alice": " "}
	assert.Error(t, c.Validate())
}

func TestSummaryRedactedForLogging(t *testing.T) {
	c := Default()
	c.AI.GeminiAPIKey = "g-secret"
	c.Database.Password = "pw"
	c.Minio.SecretKey = "s3"

	out := logging.SafeFields(c.Summary())
	assert.Equal(t, "[REDACTED]", out["aiApiKey"])
	assert.Equal(t, "[REDACTED]", out["dbPassword"])
	assert.Equal(t, "[REDACTED]", out["minioSecretKey"])
	assert.Equal(t, "sqlite", out["dbDriver"])
	assert.Equal(t, 8080, out["port"])
}
