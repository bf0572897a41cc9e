package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const tracesPath = "/v1/traces"

type Options struct {
	SentryDSN    string
	OTLPEndpoint string
}

// Setup initializes the OTLP trace exporter and Sentry when configured.
// The returned shutdown func flushes whatever was enabled and is non-nil
// even when Setup fails part way.
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	if opts.OTLPEndpoint != "" {
		// The configured value is the collector base URL; the traces path is
		// appended the same way the exporter does for its own env variable.
		endpoint := strings.TrimSuffix(opts.OTLPEndpoint, "/") + tracesPath
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
		if err != nil {
			return shutdown, fmt.Errorf("init otlp exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
		slog.Debug("otlp tracing enabled", "endpoint", opts.OTLPEndpoint)
	}

	if opts.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: opts.SentryDSN}); err != nil {
			return shutdown, fmt.Errorf("init sentry: %w", err)
		}
		shutdowns = append(shutdowns, func(context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		})
		slog.Debug("sentry enabled")
	}

	return shutdown, nil
}

// CaptureError reports err to Sentry with tags. Without a configured client
// this is a no-op.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
