package models

type Strategy string

const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

type Metric string

const (
	LCP  Metric = "lcp"
	CLS  Metric = "cls"
	INP  Metric = "inp"
	FCP  Metric = "fcp"
	TTFB Metric = "ttfb"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{LCP, CLS, INP, FCP, TTFB}

const (
	SourceField = "CrUX field"
	SourceLab   = "Lab"

	CategoryNone = "N/A"
)

// MetricRecord is the normalized result for one site and strategy. A nil
// value means the metric could not be measured.
type MetricRecord struct {
	LCP      *float64 `json:"lcp"`
	CLS      *float64 `json:"cls"`
	INP      *float64 `json:"inp"`
	FCP      *float64 `json:"fcp"`
	TTFB     *float64 `json:"ttfb"`
	Category string   `json:"cwv"`
	Source   string   `json:"source"`
}

func (r *MetricRecord) Value(m Metric) *float64 {
	switch m {
	case LCP:
		return r.LCP
	case CLS:
		return r.CLS
	case INP:
		return r.INP
	case FCP:
		return r.FCP
	case TTFB:
		return r.TTFB
	}
	return nil
}

type SiteResult struct {
	URL     string        `json:"url"`
	Mobile  *MetricRecord `json:"mobile"`
	Desktop *MetricRecord `json:"desktop"`

	MobileErr  error `json:"-"`
	DesktopErr error `json:"-"`
}

// Failed reports whether neither strategy produced data.
func (s SiteResult) Failed() bool {
	return s.Mobile == nil && s.Desktop == nil
}

// PageSpeed Insights v5 response, reduced to the parts we read.

type PageSpeedResponse struct {
	LoadingExperience *LoadingExperience `json:"loadingExperience"`
	LighthouseResult  *LighthouseResult  `json:"lighthouseResult"`
}

type LoadingExperience struct {
	Metrics         map[string]FieldMetric `json:"metrics"`
	OverallCategory string                 `json:"overall_category"`
}

type FieldMetric struct {
	Percentile *float64 `json:"percentile"`
}

type LighthouseResult struct {
	Audits map[string]Audit `json:"audits"`
}

type Audit struct {
	NumericValue *float64 `json:"numericValue"`
}
