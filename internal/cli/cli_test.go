package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	opts, exit, err := Parse([]string{"example.com"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, exit)

	assert.Equal(t, []string{"example.com"}, opts.Sites)
	assert.Equal(t, 120*time.Second, opts.Timeout)
	assert.False(t, opts.JSON)
	assert.False(t, opts.Local)
	assert.Equal(t, "info", opts.LogLevel)
}

func TestParseInterspersedFlags(t *testing.T) {
	opts, _, err := Parse([]string{"a.com", "--json", "b.com", "--api-key", "KEY", "--timeout=30", "c.com"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, opts.Sites)
	assert.True(t, opts.JSON)
	assert.Equal(t, "KEY", opts.APIKey)
	assert.Equal(t, 30*time.Second, opts.Timeout)
}

func TestParseLocal(t *testing.T) {
	opts, _, err := Parse([]string{"--local", "--mobile", "--local-image", "img:1", "a.com"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, opts.Local)
	assert.True(t, opts.Mobile)
	assert.Equal(t, "img:1", opts.LocalImage)
}

func TestParseHelp(t *testing.T) {
	var out bytes.Buffer
	opts, exit, err := Parse([]string{"--help"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, opts)
	assert.Contains(t, out.String(), "pagespeed [options] SITE")
	assert.Contains(t, out.String(), "--api-key")
}

func TestParseErrors(t *testing.T) {
	tests := map[string][]string{
		"no sites":      {"--json"},
		"unknown flag":  {"--bogus", "a.com"},
		"bad timeout":   {"--timeout", "abc", "a.com"},
		"zero timeout":  {"--timeout", "0", "a.com"},
		"bad log level": {"--log-level", "loud", "a.com"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, exit, err := Parse(args, &bytes.Buffer{})
			assert.False(t, exit)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
