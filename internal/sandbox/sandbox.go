// Package sandbox executes short-lived code snippets in a child process with
// a hard wall-clock timeout. This is a weak isolation boundary: beyond the
// timeout and a fixed working directory no resource limits are imposed.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrEmptyCode is returned before any process is spawned.
	ErrEmptyCode = errors.New("no code provided")

	// ErrUnsupportedLanguage is returned before any process is spawned.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrTimeout is returned when the wall-clock limit expires. No partial
	// output is guaranteed.
	ErrTimeout = errors.New("execution timeout")
)

const (
	LangPython     = "python"
	LangPowerShell = "powershell"
)

// Result captures the outcome of one execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Success  bool
}

// Sandbox runs a snippet in a declared language. Alternative backends
// (containerized, remote) can be substituted without touching callers.
type Sandbox interface {
	Run(ctx context.Context, language, code string) (*Result, error)
}

// Config configures the local subprocess backend.
type Config struct {
	// PythonBin is the Python interpreter. Default "python3".
	PythonBin string

	// PowerShellBin is the PowerShell-compatible shell. Default "pwsh".
	PowerShellBin string

	// Timeout is the wall-clock limit per run. Default 30s.
	Timeout time.Duration
}

// Local executes snippets as child processes on the host.
type Local struct {
	cfg Config
}

// NewLocal creates the local backend, filling config defaults.
func NewLocal(cfg Config) *Local {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.PowerShellBin == "" {
		cfg.PowerShellBin = "pwsh"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Local{cfg: cfg}
}

// Run executes code in the given language. Input validation happens before
// any process is spawned.
func (l *Local) Run(ctx context.Context, language, code string) (*Result, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyCode
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	var cmd *exec.Cmd
	switch language {
	case LangPython:
		// Inline program via the interpreter, pinned to a scratch directory.
		cmd = exec.CommandContext(ctx, l.cfg.PythonBin, "-c", code)
		cmd.Dir = os.TempDir()
	case LangPowerShell:
		// Command-string entry point, caller's working directory.
		cmd = exec.CommandContext(ctx, l.cfg.PowerShellBin, "-Command", code)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	// Close stdin so interactive snippets fail fast with EOF, and start the
	// child in its own process group so the whole tree can be killed.
	cmd.Stdin = nil
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		killProcessGroup(cmd)
		return nil
	}
	// Bound Wait even if a grandchild keeps the output pipes open.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w (%ds limit)", ErrTimeout, int(l.cfg.Timeout.Seconds()))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("spawn %s: %w", language, err)
		}
	}

	exitCode := cmd.ProcessState.ExitCode()
	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Success:  exitCode == 0,
	}, nil
}
