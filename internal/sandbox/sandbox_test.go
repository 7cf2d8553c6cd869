package sandbox

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func TestRun_PythonPrint(t *testing.T) {
	requirePython(t)
	sb := NewLocal(Config{})

	res, err := sb.Run(context.Background(), LangPython, "print(1+1)")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stdout != "2\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "2\n")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
}

func TestRun_StderrAndExitCode(t *testing.T) {
	requirePython(t)
	sb := NewLocal(Config{})

	res, err := sb.Run(context.Background(), LangPython,
		"import sys\nsys.stderr.write('boom\\n')\nsys.exit(3)")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stderr != "boom\n" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "boom\n")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
}

func TestRun_EmptyCode(t *testing.T) {
	// A bogus interpreter proves the rejection happens before any spawn.
	sb := NewLocal(Config{PythonBin: "/nonexistent/python3"})

	_, err := sb.Run(context.Background(), LangPython, "   ")
	if !errors.Is(err, ErrEmptyCode) {
		t.Fatalf("err = %v, want ErrEmptyCode", err)
	}
}

func TestRun_UnsupportedLanguage(t *testing.T) {
	sb := NewLocal(Config{PythonBin: "/nonexistent/python3"})

	_, err := sb.Run(context.Background(), "ruby", "puts 1")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("err = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestRun_Timeout_KillsProcess(t *testing.T) {
	requirePython(t)
	sb := NewLocal(Config{Timeout: 2 * time.Second})

	start := time.Now()
	_, err := sb.Run(context.Background(), LangPython, "import time\ntime.sleep(31)")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	// Run must return shortly after the limit: the child has been killed and
	// reaped, not left running for the full sleep.
	if elapsed > 10*time.Second {
		t.Fatalf("Run took %v, expected ~2s", elapsed)
	}
}

func TestRun_Defaults(t *testing.T) {
	sb := NewLocal(Config{})
	if sb.cfg.PythonBin != "python3" {
		t.Errorf("PythonBin = %q, want python3", sb.cfg.PythonBin)
	}
	if sb.cfg.PowerShellBin != "pwsh" {
		t.Errorf("PowerShellBin = %q, want pwsh", sb.cfg.PowerShellBin)
	}
	if sb.cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", sb.cfg.Timeout)
	}
}
