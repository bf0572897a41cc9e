package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shyim/pagespeed-cwv/internal/app"
	"github.com/shyim/pagespeed-cwv/internal/cli"
	"github.com/shyim/pagespeed-cwv/internal/logging"
)

func main() {
	opts, exit, err := cli.Parse(os.Args[1:], os.Stderr)
	if exit {
		os.Exit(0)
	}
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "pagespeed: %s\n", exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "pagespeed: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Init(os.Stderr, logging.ParseLevel(opts.LogLevel))

	a := app.New()
	a.Logger = logger
	os.Exit(a.Run(context.Background(), opts))
}
