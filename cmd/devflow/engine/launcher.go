package engine

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"os/exec"
)

// Invocation is the fully resolved description of one process launch:
// executable path, argv tail, working directory, and complete environment
// in KEY=VALUE form. Stream selects direct terminal passthrough over
// in-memory capture.
type Invocation struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string
	Stream bool
}

// Outcome is what a Launcher reports back. ExitCode follows shell
// conventions: the child's real exit code, or 127/126/1 for launches that
// failed before a process ever ran (Error is set in that case).
type Outcome struct {
	ExitCode int
	Output   string
	Error    string
	Skipped  bool
}

// Launcher turns an Invocation into an Outcome. The executor is written
// against this interface so that dry-run is a separate implementation that
// structurally cannot spawn anything, rather than a flag checked inside
// process-launch code.
type Launcher interface {
	Launch(inv Invocation) Outcome
}

// osLauncher spawns real processes via os/exec.
type osLauncher struct{}

// NewOSLauncher returns the Launcher used for live execution.
func NewOSLauncher() Launcher { return osLauncher{} }

func (osLauncher) Launch(inv Invocation) Outcome {
	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env

	// Combined capture in quiet/normal mode; direct passthrough when the
	// caller wants to watch output live.
	var buf bytes.Buffer
	if inv.Stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}

	err := cmd.Run()
	if err == nil {
		return Outcome{ExitCode: 0, Output: buf.String()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The process ran and exited non-zero: propagate its code verbatim.
		return Outcome{ExitCode: exitErr.ExitCode(), Output: buf.String()}
	}

	// The process never started. Classify with the conventional shell
	// sentinel codes so pipeline short-circuiting treats spawn failures
	// like any other failing step.
	switch {
	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist):
		return Outcome{ExitCode: 127, Error: "command not found: " + inv.Path}
	case errors.Is(err, fs.ErrPermission):
		return Outcome{ExitCode: 126, Error: "permission denied: " + inv.Path}
	default:
		return Outcome{ExitCode: 1, Error: "error executing task: " + err.Error()}
	}
}

// dryLauncher never spawns. It has no handle on os/exec at all, which is
// what guarantees dry-run cannot have side effects.
type dryLauncher struct{}

// NewDryLauncher returns the Launcher used for dry-run execution.
func NewDryLauncher() Launcher { return dryLauncher{} }

func (dryLauncher) Launch(Invocation) Outcome {
	return Outcome{ExitCode: 0, Skipped: true}
}
