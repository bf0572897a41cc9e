package audit

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shyim/pagespeed-cwv/internal/models"
	"github.com/shyim/pagespeed-cwv/internal/telemetry"
	"github.com/shyim/pagespeed-cwv/internal/vitals"
)

// Fetcher runs a single PageSpeed audit.
type Fetcher interface {
	Fetch(ctx context.Context, site string, strategy models.Strategy) (*models.PageSpeedResponse, error)
}

type Auditor struct {
	fetcher Fetcher
	logger  *slog.Logger
	tracer  trace.Tracer
}

func New(fetcher Fetcher, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		fetcher: fetcher,
		logger:  logger,
		tracer:  otel.Tracer("github.com/shyim/pagespeed-cwv/internal/audit"),
	}
}

// CleanSites trims whitespace and trailing commas and drops empty entries.
func CleanSites(sites []string) []string {
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		s = strings.TrimRight(strings.TrimSpace(s), ",")
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Run audits each site in order, mobile before desktop. The second return
// value is true if any site produced no data on either strategy.
func (a *Auditor) Run(ctx context.Context, sites []string) ([]models.SiteResult, bool) {
	results := make([]models.SiteResult, 0, len(sites))
	failed := false

	for _, site := range CleanSites(sites) {
		res := a.Site(ctx, site)
		if res.Failed() {
			failed = true
		}
		results = append(results, res)
	}
	return results, failed
}

func (a *Auditor) Site(ctx context.Context, site string) models.SiteResult {
	ctx, span := a.tracer.Start(ctx, "audit.site", trace.WithAttributes(attribute.String("site", site)))
	defer span.End()

	res := models.SiteResult{URL: site}
	res.Mobile, res.MobileErr = a.measure(ctx, site, models.StrategyMobile)
	res.Desktop, res.DesktopErr = a.measure(ctx, site, models.StrategyDesktop)

	if res.Failed() {
		span.SetStatus(codes.Error, "no data")
	}
	return res
}

func (a *Auditor) measure(ctx context.Context, site string, strategy models.Strategy) (*models.MetricRecord, error) {
	a.logger.Info("fetching", "site", site, "strategy", strategy)

	raw, err := a.fetcher.Fetch(ctx, site, strategy)
	if err == nil {
		var rec *models.MetricRecord
		rec, err = vitals.Extract(raw)
		if err == nil {
			a.logger.Debug("measured", "site", site, "strategy", strategy, "source", rec.Source, "cwv", rec.Category)
			return rec, nil
		}
	}

	a.logger.Warn("no data", "site", site, "strategy", strategy, "error", err)
	telemetry.CaptureError(ctx, err, map[string]string{"site": site, "strategy": string(strategy)})
	return nil, err
}
