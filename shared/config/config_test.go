package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPublic = `api_base_url: http://api:8080
page_size: 20
max_concurrent_resolutions: 8
request_timeout: 5s
preview_rate_per_second: 10
preview_burst: 5
view_ttl: 30m
max_views: 1000
log_level: debug
allowed_origins: ["https://feed.example.com"]
`

func writeConfigs(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	return dir
}

func TestMustLoad(t *testing.T) {
	dir := writeConfigs(t, validPublic, "jwt_key: 'k'\n")

	cfg := MustLoad(dir)

	assert.Equal(t, "http://api:8080", cfg.Public.ApiBaseURL)
	assert.Equal(t, 20, cfg.Public.PageSize)
	assert.Equal(t, 8, cfg.Public.MaxConcurrentResolutions)
	assert.Equal(t, 5*time.Second, cfg.Public.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Public.ViewTTL)
	assert.Equal(t, []string{"https://feed.example.com"}, cfg.Public.AllowedOrigins)
	assert.Equal(t, "k", cfg.JwtKey())
}

func TestMustLoad_RequiredFields(t *testing.T) {
	// page_size is intentionally missing
	public := "api_base_url: http://api:8080\nrequest_timeout: 5s\nview_ttl: 1m\nmax_views: 10\n"
	dir := writeConfigs(t, public, "jwt_key: 'k'\n")

	assert.Panics(t, func() { _ = MustLoad(dir) })
}

func TestMustLoad_MissingPrivate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(validPublic), 0o600))

	assert.Panics(t, func() { _ = MustLoad(dir) })
}

func TestMustLoad_UnknownField(t *testing.T) {
	dir := writeConfigs(t, validPublic+"threads_per_page: 20\n", "jwt_key: 'k'\n")

	assert.Panics(t, func() { _ = MustLoad(dir) })
}
