package vitals

import (
	"fmt"

	"github.com/shyim/pagespeed-cwv/internal/models"
)

// Threshold holds the upper bounds of the "good" and "needs improvement"
// tiers. LCP, FCP and TTFB are in seconds, INP in milliseconds.
type Threshold struct {
	Good float64
	Poor float64
}

var thresholds = map[models.Metric]Threshold{
	models.LCP:  {Good: 2.5, Poor: 4.0},
	models.CLS:  {Good: 0.1, Poor: 0.25},
	models.INP:  {Good: 200, Poor: 500},
	models.FCP:  {Good: 1.8, Poor: 3.0},
	models.TTFB: {Good: 0.8, Poor: 1.8},
}

type Tier int

const (
	TierNone Tier = iota
	TierGood
	TierNeedsImprovement
	TierPoor
)

const (
	MarkerNone             = "—"
	MarkerGood             = "🟢"
	MarkerNeedsImprovement = "🟡"
	MarkerPoor             = "🔴"
)

func ThresholdFor(m models.Metric) (Threshold, bool) {
	t, ok := thresholds[m]
	return t, ok
}

// Classify returns the tier for a value. Boundaries are inclusive.
func Classify(m models.Metric, value *float64) Tier {
	if value == nil {
		return TierNone
	}
	t, ok := thresholds[m]
	if !ok {
		return TierNone
	}
	switch {
	case *value <= t.Good:
		return TierGood
	case *value <= t.Poor:
		return TierNeedsImprovement
	default:
		return TierPoor
	}
}

func (t Tier) Marker() string {
	switch t {
	case TierGood:
		return MarkerGood
	case TierNeedsImprovement:
		return MarkerNeedsImprovement
	case TierPoor:
		return MarkerPoor
	default:
		return MarkerNone
	}
}

func Indicator(m models.Metric, value *float64) string {
	return Classify(m, value).Marker()
}

func Format(m models.Metric, value *float64) string {
	if value == nil {
		return "N/A"
	}
	switch m {
	case models.INP:
		return fmt.Sprintf("%dms", int(*value))
	case models.CLS:
		return fmt.Sprintf("%.2f", *value)
	default:
		return fmt.Sprintf("%.1fs", *value)
	}
}

var categoryMarkers = map[string]string{
	"FAST":    "✅",
	"AVERAGE": "🟡",
	"SLOW":    "🔴",
	"N/A":     "—",
}

// CategoryMarker returns the marker for an overall CWV category, or fallback
// if the category is unknown.
func CategoryMarker(category, fallback string) string {
	if m, ok := categoryMarkers[category]; ok {
		return m
	}
	return fallback
}
