package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyim/pagespeed-cwv/internal/models"
	"github.com/shyim/pagespeed-cwv/internal/vitals"
)

type call struct {
	site     string
	strategy models.Strategy
}

type fakeFetcher struct {
	calls     []call
	responses map[call]*models.PageSpeedResponse
}

func (f *fakeFetcher) Fetch(_ context.Context, site string, strategy models.Strategy) (*models.PageSpeedResponse, error) {
	c := call{site, strategy}
	f.calls = append(f.calls, c)
	if r, ok := f.responses[c]; ok {
		return r, nil
	}
	return nil, errors.New("connection refused")
}

func p(v float64) *float64 { return &v }

func fieldResponse(category string) *models.PageSpeedResponse {
	return &models.PageSpeedResponse{LoadingExperience: &models.LoadingExperience{
		Metrics: map[string]models.FieldMetric{
			"LARGEST_CONTENTFUL_PAINT_MS": {Percentile: p(2000)},
		},
		OverallCategory: category,
	}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanSites(t *testing.T) {
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, CleanSites([]string{" a.com,", "", "b.com", " , ", "c.com,,"}))
}

func TestRunOrderIsSequentialMobileFirst(t *testing.T) {
	f := &fakeFetcher{}
	_, _ = New(f, quietLogger()).Run(context.Background(), []string{"a.com", "b.com"})

	assert.Equal(t, []call{
		{"a.com", models.StrategyMobile},
		{"a.com", models.StrategyDesktop},
		{"b.com", models.StrategyMobile},
		{"b.com", models.StrategyDesktop},
	}, f.calls)
}

func TestRunIsolatesFailures(t *testing.T) {
	f := &fakeFetcher{responses: map[call]*models.PageSpeedResponse{
		{"one.com", models.StrategyMobile}:    fieldResponse("FAST"),
		{"one.com", models.StrategyDesktop}:   fieldResponse("AVERAGE"),
		{"three.com", models.StrategyDesktop}: {},
		{"four.com", models.StrategyDesktop}:  fieldResponse("SLOW"),
	}}

	results, failed := New(f, quietLogger()).Run(context.Background(), []string{"one.com", "two.com", "three.com", "four.com"})
	require.Len(t, results, 4)
	assert.True(t, failed)

	assert.Equal(t, "FAST", results[0].Mobile.Category)
	assert.Equal(t, "AVERAGE", results[0].Desktop.Category)
	assert.False(t, results[0].Failed())

	assert.True(t, results[1].Failed())
	assert.EqualError(t, results[1].MobileErr, "connection refused")

	assert.True(t, results[2].Failed())
	assert.ErrorIs(t, results[2].DesktopErr, vitals.ErrNoData)

	assert.Nil(t, results[3].Mobile)
	assert.Equal(t, "SLOW", results[3].Desktop.Category)
	assert.False(t, results[3].Failed())
}

func TestRunAllSucceed(t *testing.T) {
	f := &fakeFetcher{responses: map[call]*models.PageSpeedResponse{
		{"a.com", models.StrategyMobile}: fieldResponse("FAST"),
	}}
	results, failed := New(f, quietLogger()).Run(context.Background(), []string{"a.com"})
	require.Len(t, results, 1)
	assert.False(t, failed)
}
