package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Backend.Driver)
	assert.Equal(t, 30*time.Second, cfg.REST.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.Provision.AttributeDelay)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
backend:
  driver: sql
database:
  driver: sqlite
  path: /tmp/portfolio
provision:
  attribute_delay: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverSQL, cfg.Backend.Driver)
	assert.Equal(t, "/tmp/portfolio/portfolio.db", cfg.Database.DSN())
	assert.Equal(t, 2*time.Second, cfg.Provision.AttributeDelay)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "backend:\n  driver: rest\nrest:\n  endpoint: http://file\n  project: p\n")
	t.Setenv("PORTFOLIO_REST_ENDPOINT", "http://env")
	t.Setenv("PORTFOLIO_REST_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.REST.Endpoint)
	assert.Equal(t, "secret", cfg.REST.APIKey)
	assert.Equal(t, "portfolio", cfg.REST.DatabaseID)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "backend:\n  driver: firebase\n"))
	assert.ErrorContains(t, err, "backend.driver")

	_, err = Load(writeConfig(t, "backend:\n  driver: rest\n"))
	assert.ErrorContains(t, err, "rest.endpoint")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "db", Port: 5432, Name: "portfolio"}
	assert.Equal(t, "postgres://u:p@db:5432/portfolio?sslmode=disable", d.DSN())
	assert.False(t, d.IsSQLite())
}
