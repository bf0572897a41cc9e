// Package local delegates measurement to an external browser-automation
// tool. The tool is opaque: it receives the site list and two flags, writes
// its own report, and its exit status becomes ours.
package local

import (
	"context"
	"io"
)

// Request describes one delegated measurement run.
type Request struct {
	Sites  []string
	Mobile bool
	JSON   bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Args returns the delegate's argument list: flags first, then sites.
func (r Request) Args() []string {
	args := make([]string, 0, len(r.Sites)+2)
	if r.Mobile {
		args = append(args, "--mobile")
	}
	if r.JSON {
		args = append(args, "--json")
	}
	return append(args, r.Sites...)
}

// Runner executes the delegate and returns its exit code. A non-nil error
// means the delegate could not be run at all.
type Runner interface {
	Run(ctx context.Context, req Request) (int, error)
}
