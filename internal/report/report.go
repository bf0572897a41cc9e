package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shyim/pagespeed-cwv/internal/models"
	"github.com/shyim/pagespeed-cwv/internal/vitals"
)

type Layout string

const (
	LayoutSingle  Layout = "single"
	LayoutCompare Layout = "compare"
	LayoutBatch   Layout = "batch"
)

// LayoutFor picks the text layout from the number of sites.
func LayoutFor(n int) Layout {
	switch n {
	case 1:
		return LayoutSingle
	case 2:
		return LayoutCompare
	default:
		return LayoutBatch
	}
}

// Text renders the layout matching len(results).
func Text(w io.Writer, results []models.SiteResult) error {
	var buf bytes.Buffer
	switch LayoutFor(len(results)) {
	case LayoutSingle:
		single(&buf, results[0])
	case LayoutCompare:
		compare(&buf, results[0], results[1])
	default:
		batch(&buf, results)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// JSON writes one {url, mobile, desktop} record per site.
func JSON(w io.Writer, results []models.SiteResult) error {
	if results == nil {
		results = []models.SiteResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}

func valueCell(m models.Metric, v *float64) string {
	if v == nil {
		return "N/A"
	}
	return vitals.Format(m, v) + " " + vitals.Indicator(m, v)
}

func category(rec *models.MetricRecord, missing string) string {
	if rec == nil {
		return missing
	}
	return rec.Category
}

func source(rec *models.MetricRecord) string {
	if rec == nil {
		return "N/A"
	}
	return rec.Source
}

func single(buf *bytes.Buffer, r models.SiteResult) {
	best := category(r.Mobile, "ERROR")
	if best == models.CategoryNone {
		best = category(r.Desktop, "ERROR")
	}
	fmt.Fprintf(buf, "\n🌐 **%s** — CWV: %s %s\n\n", r.URL, best, vitals.CategoryMarker(best, "❓"))

	platforms := []struct {
		label string
		rec   *models.MetricRecord
	}{
		{"📱 Mobile", r.Mobile},
		{"🖥️ Desktop", r.Desktop},
	}
	for _, p := range platforms {
		if p.rec == nil {
			fmt.Fprintf(buf, "%s: ❌ No data available\n", p.label)
			continue
		}

		var src string
		if p.rec.Source != models.SourceField {
			src = fmt.Sprintf(" *(%s)*", p.rec.Source)
		}

		cells := make([]string, 0, len(models.Metrics))
		for _, m := range models.Metrics {
			v := p.rec.Value(m)
			marker := ""
			if v != nil {
				marker = vitals.Indicator(m, v)
			}
			cells = append(cells, fmt.Sprintf("%s: %s %s", strings.ToUpper(string(m)), vitals.Format(m, v), marker))
		}
		fmt.Fprintf(buf, "%s%s:\n", p.label, src)
		fmt.Fprintf(buf, "  %s\n", strings.Join(cells[:3], " | "))
		fmt.Fprintf(buf, "  %s\n", strings.Join(cells[3:], " | "))
	}

	fmt.Fprintf(buf, "\n📊 Data: %s (mobile) | %s (desktop)\n", source(r.Mobile), source(r.Desktop))
}

type Outcome int

const (
	NoWinner Outcome = iota
	WinA
	WinB
	Tie
)

// Winner compares two values where lower is better.
func Winner(a, b *float64) Outcome {
	switch {
	case a == nil || b == nil:
		return NoWinner
	case *a < *b:
		return WinA
	case *b < *a:
		return WinB
	default:
		return Tie
	}
}

func compare(buf *bytes.Buffer, a, b models.SiteResult) {
	fmt.Fprintf(buf, "\n⚔️ **CWV Comparison: %s vs %s**\n\n", a.URL, b.URL)
	fmt.Fprintf(buf, "| Metric | %s | %s | Winner |\n", a.URL, b.URL)
	fmt.Fprintf(buf, "|--------|%s|%s|--------|\n", strings.Repeat("---", 5), strings.Repeat("---", 5))

	var wins [2]int
	sites := [2]string{a.URL, b.URL}

	platforms := []struct {
		prefix string
		a, b   *models.MetricRecord
	}{
		{"📱", a.Mobile, b.Mobile},
		{"🖥️", a.Desktop, b.Desktop},
	}
	for _, p := range platforms {
		if p.a == nil || p.b == nil {
			continue
		}
		for _, m := range models.Metrics {
			va, vb := p.a.Value(m), p.b.Value(m)

			var winner string
			switch Winner(va, vb) {
			case WinA:
				wins[0]++
				winner = "✅ " + sites[0]
			case WinB:
				wins[1]++
				winner = "✅ " + sites[1]
			case Tie:
				winner = "Tie"
			default:
				winner = "—"
			}
			fmt.Fprintf(buf, "| %s %s | %s | %s | %s |\n",
				p.prefix, strings.ToUpper(string(m)), valueCell(m, va), valueCell(m, vb), winner)
		}
	}

	leader := 0
	if wins[1] > wins[0] {
		leader = 1
	}
	fmt.Fprintf(buf, "\n**Overall: %s wins %d/%d metrics**\n", sites[leader], wins[leader], wins[0]+wins[1])

	ca, cb := category(a.Mobile, "?"), category(b.Mobile, "?")
	fmt.Fprintf(buf, "**CWV: %s %s %s vs %s %s %s**\n",
		a.URL, ca, vitals.CategoryMarker(ca, "?"),
		b.URL, cb, vitals.CategoryMarker(cb, "?"))
}

func batch(buf *bytes.Buffer, results []models.SiteResult) {
	buf.WriteString("\n📊 **Batch CWV Results**\n\n")
	buf.WriteString("| Site | M-LCP | M-CLS | M-INP | M-FCP | M-TTFB | CWV |\n")
	buf.WriteString("|------|-------|-------|-------|-------|--------|-----|\n")

	for _, r := range results {
		if r.Mobile == nil {
			fmt.Fprintf(buf, "| %s | ERROR | — | — | — | — | — |\n", r.URL)
			continue
		}
		row := []string{r.URL}
		for _, m := range models.Metrics {
			row = append(row, valueCell(m, r.Mobile.Value(m)))
		}
		row = append(row, r.Mobile.Category+" "+vitals.CategoryMarker(r.Mobile.Category, ""))
		fmt.Fprintf(buf, "| %s |\n", strings.Join(row, " | "))
	}
}
