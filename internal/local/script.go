package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

const (
	DefaultScriptName = "pagespeed-local.js"
	InstallHint       = "Run: npm install puppeteer web-vitals (in the directory holding " + DefaultScriptName + ")"
)

// MissingScriptError is returned when the delegate script does not exist.
type MissingScriptError struct {
	Path string
}

func (e *MissingScriptError) Error() string {
	return "Local script not found: " + e.Path
}

// ScriptRunner runs the delegate as `node <script> args...` from the
// script's directory.
type ScriptRunner struct {
	Script      string
	Interpreter string
	Logger      *slog.Logger
}

func NewScriptRunner(script string) *ScriptRunner {
	return &ScriptRunner{Script: script, Interpreter: "node", Logger: slog.Default()}
}

// DefaultScriptPath is the delegate script next to the executable.
func DefaultScriptPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultScriptName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultScriptName)
}

func (r *ScriptRunner) Run(ctx context.Context, req Request) (int, error) {
	info, err := os.Stat(r.Script)
	if err != nil || info.IsDir() {
		return 1, &MissingScriptError{Path: r.Script}
	}

	args := append([]string{r.Script}, req.Args()...)
	cmd := exec.CommandContext(ctx, r.Interpreter, args...)
	cmd.Dir = filepath.Dir(r.Script)
	cmd.Stdin = req.Stdin
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	if r.Logger != nil {
		r.Logger.Debug("running local delegate", "interpreter", r.Interpreter, "args", args)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitCode(exitErr), nil
		}
		return 1, fmt.Errorf("run %s: %w", r.Interpreter, err)
	}
	return 0, nil
}

// exitCode follows the shell convention of 128+n for a delegate killed by
// signal n.
func exitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}
