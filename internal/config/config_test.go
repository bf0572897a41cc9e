package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseSettings(t *testing.T) {
	in := `
# comment
GOOGLE_PAGESPEED_API_TOKEN="abc123"
  S3_BUCKET_NAME = 'reports'
NOEQUALS
EMPTY=
URL=https://example.com/?a=b
GOOGLE_PAGESPEED_API_TOKEN=second
`
	values, err := ParseSettings(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"GOOGLE_PAGESPEED_API_TOKEN": "abc123",
		"S3_BUCKET_NAME":             "reports",
		"EMPTY":                      "",
		"URL":                        "https://example.com/?a=b",
	}, values)
}

func TestCandidatePaths(t *testing.T) {
	paths := CandidatePaths("/a/b/c", "/opt/pagespeed", "/home/u")
	assert.Equal(t, []string{
		"/a/b/c/.env",
		"/a/b/.env",
		"/a/.env",
		"/.env",
		"/opt/pagespeed/.env",
		"/home/u/.env",
	}, paths)
}

func TestCandidatePathsCapsAncestors(t *testing.T) {
	deep := "/" + strings.Repeat("d/", 15)
	paths := CandidatePaths(filepath.Clean(deep), "", "")
	// cwd plus ten ancestors.
	assert.Len(t, paths, 11)
}

func TestDiscoverSettingsFirstFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first", SettingsFile)
	second := filepath.Join(dir, "second", SettingsFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(first), 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(second), 0755))
	require.NoError(t, os.WriteFile(first, []byte("# nothing here\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte(APIKeyEnv+"=from-second\n"), 0644))

	path, values, err := DiscoverSettings([]string{filepath.Join(dir, "missing", SettingsFile), first, second})
	require.NoError(t, err)
	assert.Equal(t, first, path)
	assert.Empty(t, values)
}

func TestDiscoverSettingsNoneFound(t *testing.T) {
	path, values, err := DiscoverSettings([]string{filepath.Join(t.TempDir(), SettingsFile)})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, values)
}

func TestLoadPrecedence(t *testing.T) {
	settings := map[string]string{APIKeyEnv: "from-file", "S3_BUCKET_NAME": "file-bucket"}

	cfg := Load(NewEnv(envFrom(nil), settings), Overrides{})
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "file-bucket", cfg.Storage.Bucket)

	cfg = Load(NewEnv(envFrom(map[string]string{APIKeyEnv: "from-env"}), settings), Overrides{})
	assert.Equal(t, "from-env", cfg.APIKey)

	cfg = Load(NewEnv(envFrom(map[string]string{APIKeyEnv: "from-env"}), settings), Overrides{APIKey: "from-flag"})
	assert.Equal(t, "from-flag", cfg.APIKey)
}

func TestLoadEmptyEnvShadowsFile(t *testing.T) {
	cfg := Load(NewEnv(envFrom(map[string]string{APIKeyEnv: ""}), map[string]string{APIKeyEnv: "from-file"}), Overrides{})
	assert.Empty(t, cfg.APIKey)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load(NewEnv(nil, nil), Overrides{})
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "pagespeed-reports", cfg.Storage.Bucket)
	assert.True(t, cfg.Storage.DisablePayloadSigning)
	assert.Empty(t, cfg.Endpoint)

	cfg = Load(NewEnv(nil, nil), Overrides{Timeout: 30 * time.Second, LocalScript: "/x.js"})
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "/x.js", cfg.LocalScript)
}

func TestValidate(t *testing.T) {
	cfg := Load(NewEnv(nil, nil), Overrides{})
	assert.ErrorIs(t, cfg.Validate(true), ErrMissingAPIKey)
	assert.NoError(t, cfg.Validate(false))

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate(true))

	cfg.Timeout = 0
	assert.Error(t, cfg.Validate(true))
}
