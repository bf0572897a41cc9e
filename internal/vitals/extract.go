package vitals

import (
	"errors"
	"strconv"

	"github.com/shyim/pagespeed-cwv/internal/models"
)

var (
	ErrNoData = errors.New("API error or timeout")
	ErrParse  = errors.New("Parse error")
)

// CrUX field metric keys.
const (
	fieldLCP  = "LARGEST_CONTENTFUL_PAINT_MS"
	fieldCLS  = "CUMULATIVE_LAYOUT_SHIFT_SCORE"
	fieldINP  = "INTERACTION_TO_NEXT_PAINT"
	fieldFCP  = "FIRST_CONTENTFUL_PAINT_MS"
	fieldTTFB = "EXPERIMENTAL_TIME_TO_FIRST_BYTE"
)

// Lighthouse audit ids.
const (
	auditLCP  = "largest-contentful-paint"
	auditCLS  = "cumulative-layout-shift"
	auditFCP  = "first-contentful-paint"
	auditTTFB = "server-response-time"
)

// Extract normalizes a PageSpeed response. Field data wins over lab data
// whenever it carries both metrics and an overall category.
func Extract(resp *models.PageSpeedResponse) (*models.MetricRecord, error) {
	if resp == nil {
		return nil, ErrNoData
	}

	if le := resp.LoadingExperience; le != nil && len(le.Metrics) > 0 && le.OverallCategory != "" {
		return extractField(le), nil
	}

	if resp.LighthouseResult == nil || len(resp.LighthouseResult.Audits) == 0 {
		return nil, ErrNoData
	}
	return extractLab(resp.LighthouseResult.Audits)
}

func extractField(le *models.LoadingExperience) *models.MetricRecord {
	percentile := func(key string) float64 {
		if p := le.Metrics[key].Percentile; p != nil {
			return *p
		}
		return 0
	}

	rec := &models.MetricRecord{
		LCP:      ptr(round(percentile(fieldLCP)/1000, 2)),
		CLS:      ptr(round(percentile(fieldCLS)/100, 2)),
		FCP:      ptr(round(percentile(fieldFCP)/1000, 2)),
		TTFB:     ptr(round(percentile(fieldTTFB)/1000, 2)),
		Category: le.OverallCategory,
		Source:   models.SourceField,
	}
	if p := le.Metrics[fieldINP].Percentile; p != nil {
		rec.INP = ptr(*p)
	}
	return rec
}

func extractLab(audits map[string]models.Audit) (*models.MetricRecord, error) {
	required := func(id string) (float64, error) {
		a, ok := audits[id]
		if !ok || a.NumericValue == nil {
			return 0, ErrParse
		}
		return *a.NumericValue, nil
	}

	lcp, err := required(auditLCP)
	if err != nil {
		return nil, err
	}
	cls, err := required(auditCLS)
	if err != nil {
		return nil, err
	}
	fcp, err := required(auditFCP)
	if err != nil {
		return nil, err
	}

	var ttfb float64
	if a, ok := audits[auditTTFB]; ok && a.NumericValue != nil {
		ttfb = *a.NumericValue
	}

	return &models.MetricRecord{
		LCP:      ptr(round(lcp/1000, 2)),
		CLS:      ptr(round(cls, 3)),
		FCP:      ptr(round(fcp/1000, 2)),
		TTFB:     ptr(round(ttfb/1000, 2)),
		Category: models.CategoryNone,
		Source:   models.SourceLab,
	}, nil
}

// round rounds the exact binary value to places decimals, so an exact half
// such as 2.125 goes to the even digit.
func round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func ptr(v float64) *float64 {
	return &v
}
