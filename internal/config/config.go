package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	APIKeyEnv      = "GOOGLE_PAGESPEED_API_TOKEN"
	SettingsFile   = ".env"
	DefaultTimeout = 120 * time.Second

	// maxParentDirs bounds how far the settings search walks up from cwd.
	maxParentDirs = 10
)

var ErrMissingAPIKey = errors.New("Set " + APIKeyEnv + " or use --api-key")

// Config is resolved once at startup and passed explicitly to every component.
type Config struct {
	APIKey   string
	Timeout  time.Duration
	Endpoint string

	LocalScript string

	Storage StorageConfig

	SentryDSN    string
	OTLPEndpoint string

	// SettingsPath is the settings file that was read, empty if none was found.
	SettingsPath string
}

// StorageConfig configures the S3 report sink.
type StorageConfig struct {
	ServiceURL            string
	AccessKey             string
	SecretKey             string
	Bucket                string
	DisablePayloadSigning bool
}

// Overrides carries values given on the command line. Zero values mean unset.
type Overrides struct {
	APIKey      string
	Timeout     time.Duration
	LocalScript string
}

// Env layers the process environment over values read from a settings file.
type Env struct {
	lookup   func(string) (string, bool)
	settings map[string]string
}

func NewEnv(lookup func(string) (string, bool), settings map[string]string) Env {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return Env{lookup: lookup, settings: settings}
}

// Get returns the environment binding for key if one exists, else the
// settings-file value.
func (e Env) Get(key string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return e.settings[key]
}

func (e Env) getDefault(key, fallback string) string {
	if v := e.Get(key); v != "" {
		return v
	}
	return fallback
}

func Load(env Env, o Overrides) Config {
	cfg := Config{
		APIKey:      env.Get(APIKeyEnv),
		Timeout:     DefaultTimeout,
		Endpoint:    env.Get("PAGESPEED_API_URL"),
		LocalScript: env.Get("PAGESPEED_LOCAL_SCRIPT"),
		Storage: StorageConfig{
			ServiceURL:            env.Get("S3_SERVICE_URL"),
			AccessKey:             env.Get("S3_ACCESS_KEY"),
			SecretKey:             env.Get("S3_SECRET_KEY"),
			Bucket:                env.getDefault("S3_BUCKET_NAME", "pagespeed-reports"),
			DisablePayloadSigning: env.Get("S3_DISABLE_PAYLOAD_SIGNING") != "false",
		},
		SentryDSN:    env.Get("SENTRY_DSN"),
		OTLPEndpoint: env.Get("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if o.APIKey != "" {
		cfg.APIKey = o.APIKey
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	if o.LocalScript != "" {
		cfg.LocalScript = o.LocalScript
	}
	return cfg
}

// Validate checks that the pipeline can run. The API key is only needed
// when the measurement is not delegated.
func (c Config) Validate(requireKey bool) error {
	if requireKey && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// CandidatePaths lists the settings files to try, in order: cwd, up to ten
// ancestors of cwd, the install root, then the home directory.
func CandidatePaths(cwd, installRoot, home string) []string {
	paths := []string{filepath.Join(cwd, SettingsFile)}

	dir := cwd
	for i := 0; i < maxParentDirs; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		paths = append(paths, filepath.Join(parent, SettingsFile))
		dir = parent
	}

	if installRoot != "" {
		paths = append(paths, filepath.Join(installRoot, SettingsFile))
	}
	if home != "" {
		paths = append(paths, filepath.Join(home, SettingsFile))
	}
	return paths
}

// DefaultCandidatePaths resolves CandidatePaths for the running process.
func DefaultCandidatePaths() []string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	home, _ := os.UserHomeDir()
	return CandidatePaths(cwd, InstallRoot(), home)
}

// InstallRoot is the parent of the directory holding the executable.
func InstallRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(exe))
}

// DiscoverSettings reads the first regular file in paths. The scan stops at
// the first file found even if it holds nothing useful.
func DiscoverSettings(paths []string) (string, map[string]string, error) {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return path, nil, fmt.Errorf("open settings file: %w", err)
		}
		values, err := ParseSettings(f)
		f.Close()
		if err != nil {
			return path, nil, fmt.Errorf("read settings file %s: %w", path, err)
		}
		return path, values, nil
	}
	return "", map[string]string{}, nil
}

// ParseSettings parses KEY=VALUE lines. Blank lines, comments and lines
// without '=' are skipped. The first occurrence of a key wins.
func ParseSettings(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.Trim(strings.TrimSpace(val), `"`), "'")
		if _, exists := values[key]; !exists {
			values[key] = val
		}
	}
	return values, scanner.Err()
}
