package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:3001", cfg.APIBaseURL)
	assert.Equal(t, 300, cfg.CacheTTLSecs)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_ProductionRequiresToken(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SERVICE_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVICE_TOKEN")
}

func TestLoad_RejectsBadBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "not-a-url")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_URL")
}

func TestAPIURL_Joins(t *testing.T) {
	cfg := &Config{APIBaseURL: "http://api.local/"}
	assert.Equal(t, "http://api.local/api/admin/poojas", cfg.APIURL("/api/admin/poojas"))
	assert.Equal(t, "http://api.local/api/admin/poojas", cfg.APIURL("api/admin/poojas"))
}

func TestMediaURL(t *testing.T) {
	cfg := &Config{MediaBaseURL: "http://cdn.local"}

	assert.Equal(t, "", cfg.MediaURL(""))
	assert.Equal(t, "http://cdn.local/uploads/puja.jpg", cfg.MediaURL("uploads/puja.jpg"))
	// Absolute URLs pass through untouched.
	assert.Equal(t, "https://elsewhere/x.png", cfg.MediaURL("https://elsewhere/x.png"))
}
