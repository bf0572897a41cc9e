package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Options holds the parsed command line.
type Options struct {
	Sites       []string
	APIKey      string
	JSON        bool
	Timeout     time.Duration
	Local       bool
	Mobile      bool
	LocalScript string
	LocalImage  string
	UploadKey   string
	LogLevel    string
}

// Parse processes command-line arguments. It returns the options, a boolean
// indicating the program should exit cleanly (help was shown), or an
// ExitError for usage problems.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	fs := pflag.NewFlagSet("pagespeed", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false

	fs.Usage = func() {
		fmt.Fprint(output, `PageSpeed Insights Core Web Vitals audit.

Usage:
  pagespeed [options] SITE [SITE...]

One site prints a single report, two sites a comparison, three or more a
batch table.

Options:
`)
		fs.PrintDefaults()
	}

	opts := &Options{}
	var timeoutSecs int
	fs.StringVar(&opts.APIKey, "api-key", "", "PageSpeed API key (overrides GOOGLE_PAGESPEED_API_TOKEN)")
	fs.BoolVar(&opts.JSON, "json", false, "Output raw JSON instead of formatted text")
	fs.IntVar(&timeoutSecs, "timeout", 120, "API timeout in seconds")
	fs.BoolVar(&opts.Local, "local", false, "Use local browser measurement instead of the PageSpeed API")
	fs.BoolVar(&opts.Mobile, "mobile", false, "Include mobile measurement (local mode only)")
	fs.StringVar(&opts.LocalScript, "local-script", "", "Path to the local measurement script")
	fs.StringVar(&opts.LocalImage, "local-image", "", "Run the local measurement in this docker image")
	fs.StringVar(&opts.UploadKey, "upload", "", "Also upload the report to S3 under this object key")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Logging level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	opts.Sites = fs.Args()
	if len(opts.Sites) == 0 {
		fs.Usage()
		return nil, false, &ExitError{Code: 2, Message: "at least one site is required"}
	}

	if timeoutSecs <= 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid timeout %d: must be positive", timeoutSecs)}
	}
	opts.Timeout = time.Duration(timeoutSecs) * time.Second

	opts.LogLevel = strings.ToLower(opts.LogLevel)
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return opts, false, nil
}
