package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shyim/pagespeed-cwv/internal/audit"
	"github.com/shyim/pagespeed-cwv/internal/cleanup"
	"github.com/shyim/pagespeed-cwv/internal/cli"
	"github.com/shyim/pagespeed-cwv/internal/config"
	"github.com/shyim/pagespeed-cwv/internal/local"
	"github.com/shyim/pagespeed-cwv/internal/pagespeed"
	"github.com/shyim/pagespeed-cwv/internal/report"
	"github.com/shyim/pagespeed-cwv/internal/storage"
	"github.com/shyim/pagespeed-cwv/internal/telemetry"
)

// Uploader stores a rendered report.
type Uploader interface {
	UploadStream(ctx context.Context, key, contentType string, body io.Reader) error
}

// App wires configuration, the audit pipeline and the report sinks for one
// invocation. Zero-valued fields fall back to the real process environment.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	LookupEnv     func(string) (string, bool)
	SettingsPaths []string
	TempDir       string

	// NewRunner and NewUploader are replaced in tests.
	NewRunner   func(cfg config.Config, opts *cli.Options) (local.Runner, error)
	NewUploader func(ctx context.Context, cfg config.StorageConfig) (Uploader, error)
}

func New() *App {
	return &App{
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Logger:        slog.Default(),
		LookupEnv:     os.LookupEnv,
		SettingsPaths: config.DefaultCandidatePaths(),
		TempDir:       os.TempDir(),
		NewRunner:     defaultRunner,
		NewUploader:   defaultUploader,
	}
}

func defaultRunner(cfg config.Config, opts *cli.Options) (local.Runner, error) {
	if opts.LocalImage != "" {
		return local.NewDockerRunner(opts.LocalImage)
	}
	script := cfg.LocalScript
	if script == "" {
		script = local.DefaultScriptPath()
	}
	return local.NewScriptRunner(script), nil
}

func defaultUploader(ctx context.Context, cfg config.StorageConfig) (Uploader, error) {
	return storage.NewService(ctx, cfg)
}

// Run executes one invocation and returns the process exit code.
func (a *App) Run(ctx context.Context, opts *cli.Options) int {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settingsPath, settings, err := config.DiscoverSettings(a.SettingsPaths)
	if err != nil {
		logger.Warn("ignoring settings file", "path", settingsPath, "error", err)
	} else if settingsPath != "" {
		logger.Debug("loaded settings file", "path", settingsPath)
	}

	cfg := config.Load(config.NewEnv(a.LookupEnv, settings), config.Overrides{
		APIKey:      opts.APIKey,
		Timeout:     opts.Timeout,
		LocalScript: opts.LocalScript,
	})
	cfg.SettingsPath = settingsPath

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		SentryDSN:    cfg.SentryDSN,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Warn("telemetry partially disabled", "error", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	if opts.Local {
		return a.runLocal(ctx, cfg, opts)
	}

	if err := cfg.Validate(true); err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		telemetry.CaptureError(ctx, err, nil)
		return 1
	}

	client := pagespeed.NewClient(cfg.APIKey,
		pagespeed.WithEndpoint(cfg.Endpoint),
		pagespeed.WithTimeout(cfg.Timeout),
	)
	results, failed := audit.New(client, logger).Run(ctx, opts.Sites)

	var buf bytes.Buffer
	contentType := "text/markdown; charset=utf-8"
	if opts.JSON {
		contentType = "application/json"
		err = report.JSON(&buf, results)
	} else {
		err = report.Text(&buf, results)
	}
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: render report: %v\n", err)
		return 1
	}
	if _, err := a.Stdout.Write(buf.Bytes()); err != nil {
		logger.Error("write report", "error", err)
		return 1
	}

	if opts.UploadKey != "" {
		if err := a.upload(ctx, cfg, opts.UploadKey, contentType, buf.Bytes()); err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
			telemetry.CaptureError(ctx, err, map[string]string{"key": opts.UploadKey})
			return 1
		}
		logger.Info("report uploaded", "bucket", cfg.Storage.Bucket, "key", opts.UploadKey)
	}

	if failed {
		return 1
	}
	return 0
}

func (a *App) upload(ctx context.Context, cfg config.Config, key, contentType string, body []byte) error {
	up, err := a.NewUploader(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return up.UploadStream(ctx, key, contentType, bytes.NewReader(body))
}

func (a *App) runLocal(ctx context.Context, cfg config.Config, opts *cli.Options) int {
	runner, err := a.NewRunner(cfg, opts)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}

	code, err := runner.Run(ctx, local.Request{
		Sites:  opts.Sites,
		Mobile: opts.Mobile,
		JSON:   opts.JSON,
		Stdin:  a.Stdin,
		Stdout: a.Stdout,
		Stderr: a.Stderr,
	})
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		var missing *local.MissingScriptError
		if errors.As(err, &missing) {
			fmt.Fprintln(a.Stderr, local.InstallHint)
		}
		telemetry.CaptureError(ctx, err, nil)
		return 1
	}

	if a.TempDir != "" {
		cleanup.ChromiumTempFiles(a.TempDir, cleanup.DefaultMaxAge, a.Logger)
	}
	return code
}
