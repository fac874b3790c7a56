package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: probe
  password: secret
  name: aiprobe
redis:
  addr: redis.internal:6379
analysis:
  timeoutSeconds: 30
  retries: 2
  cacheTTLSeconds: 600
providers:
  openai:
    model: gpt-4o
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.Equal(t, 10*time.Minute, cfg.CacheTTL())
	require.Equal(t, 2, cfg.Analysis.Retries)
	require.Equal(t, "gpt-4o", cfg.Providers.OpenAI.Model)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 60*time.Second, cfg.Timeout())
	require.Equal(t, 3, cfg.Analysis.Retries)
	require.Equal(t, 24*time.Hour, cfg.CacheTTL())
	require.Equal(t, 100, cfg.RateLimit.Capacity)
}

func TestLoad_EnvOverlay(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_ADDR", "override:6379")
	t.Setenv("ANALYSIS_RETRIES", "7")

	cfg, err := Load(writeConfig(t, "redis:\n  addr: original:6379\n"))
	require.NoError(t, err)
	require.Equal(t, "sk-test", cfg.OpenAIKey)
	require.Equal(t, "override:6379", cfg.Redis.Addr)
	require.Equal(t, 7, cfg.Analysis.Retries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDSNHelpers(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "aiprobe"

	require.Equal(t, "u:p@tcp(db:3306)/aiprobe?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())

	cfg.Database.Port = 5432
	require.Equal(t, "host=db port=5432 user=u password=p dbname=aiprobe sslmode=disable", cfg.PostgresDSN())
}
