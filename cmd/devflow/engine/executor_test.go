package engine

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

// fakeLauncher scripts exit codes per command name and records every
// invocation, so tests can assert exactly what would have been spawned.
type fakeLauncher struct {
	codes map[string]int
	calls []Invocation
}

func (f *fakeLauncher) Launch(inv Invocation) Outcome {
	f.calls = append(f.calls, inv)
	return Outcome{ExitCode: f.codes[filepath.Base(inv.Path)]}
}

func newTestExecutor(t *testing.T, reg *Registry, launcher Launcher) *Executor {
	t.Helper()
	return New(reg, Options{
		ProjectRoot: t.TempDir(),
		Log:         func(string, string, int) {},
		Launcher:    launcher,
	})
}

func TestRun_SingleTask(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, &Task{Name: "unit", Command: "pytest", Args: []string{"-q"}})

	launcher := &fakeLauncher{codes: map[string]int{}}
	exec := newTestExecutor(t, reg, launcher)

	result, err := exec.Run("unit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	single, ok := result.(*ExecutionResult)
	if !ok {
		t.Fatalf("expected *ExecutionResult for a plain task, got %T", result)
	}
	if single.TaskName != "unit" || single.ExitCode != 0 || single.Skipped {
		t.Fatalf("unexpected result: %+v", single)
	}
	if len(launcher.calls) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launcher.calls))
	}
	if got := launcher.calls[0].Args; len(got) != 1 || got[0] != "-q" {
		t.Fatalf("unexpected argv tail: %v", got)
	}
}

func TestRun_NotFound(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, &Task{Name: "unit", Command: "pytest"})

	exec := newTestExecutor(t, reg, &fakeLauncher{})
	_, err := exec.Run("nonexistent")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if len(nf.Available) != 1 || nf.Available[0] != "unit" {
		t.Fatalf("unexpected available names: %v", nf.Available)
	}
}

func TestRun_PipelineFailFast(t *testing.T) {
	// step2 exits 5: exactly two results, short-circuited, effective exit
	// code 5, and step3 is never launched.
	reg := NewRegistry()
	mustRegister(t, reg,
		&Task{Name: "step1", Command: "one"},
		&Task{Name: "step2", Command: "two"},
		&Task{Name: "step3", Command: "three"},
		&Pipeline{Name: "CI", Steps: []Step{{Ref: "step1"}, {Ref: "step2"}, {Ref: "step3"}}},
	)

	launcher := &fakeLauncher{codes: map[string]int{"two": 5}}
	exec := newTestExecutor(t, reg, launcher)

	result, err := exec.Run("CI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pipeline, ok := result.(*PipelineResult)
	if !ok {
		t.Fatalf("expected *PipelineResult, got %T", result)
	}
	if len(pipeline.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(pipeline.Results))
	}
	if !pipeline.ShortCircuited {
		t.Fatal("expected short_circuited")
	}
	if pipeline.ExitCode() != 5 {
		t.Fatalf("expected effective exit code 5, got %d", pipeline.ExitCode())
	}
	for _, inv := range launcher.calls {
		if filepath.Base(inv.Path) == "three" {
			t.Fatal("step3 must never be launched after a failure")
		}
	}
}

func TestRun_PipelineAllSucceed(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg,
		&Task{Name: "a", Command: "one"},
		&Task{Name: "b", Command: "two"},
		&Pipeline{Name: "ok", Steps: []Step{{Ref: "a"}, {Ref: "b"}}},
	)

	exec := newTestExecutor(t, reg, &fakeLauncher{codes: map[string]int{}})
	result, err := exec.Run("ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pipeline := result.(*PipelineResult)
	if pipeline.ShortCircuited || !pipeline.Success() || len(pipeline.Results) != 2 {
		t.Fatalf("unexpected pipeline result: %+v", pipeline)
	}
}

func TestRun_ExpansionErrorAbortsBeforeSpawn(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg,
		&Task{Name: "good", Command: "one"},
		&Pipeline{Name: "ci", Steps: []Step{{Ref: "good"}, {Ref: "missing"}}},
	)

	launcher := &fakeLauncher{}
	exec := newTestExecutor(t, reg, launcher)

	_, err := exec.Run("ci")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	// Partial expansion must never lead to partial execution.
	if len(launcher.calls) != 0 {
		t.Fatalf("expected no launches, got %d", len(launcher.calls))
	}
}

func TestExecuteTask_ExitCodePassthrough(t *testing.T) {
	reg := NewRegistry()
	task := &Task{Name: "flaky", Command: "flaky"}
	mustRegister(t, reg, task)

	exec := newTestExecutor(t, reg, &fakeLauncher{codes: map[string]int{"flaky": 3}})
	result := exec.ExecuteTask(task)
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3 verbatim, got %d", result.ExitCode)
	}
	if result.Error != "" {
		t.Fatalf("non-zero exit is not a spawn error, got %q", result.Error)
	}
}

func TestExecuteTask_EnvOverride(t *testing.T) {
	reg := NewRegistry()
	task := &Task{Name: "envy", Command: "envy", Env: map[string]string{"X": "1"}}
	mustRegister(t, reg, task)

	launcher := &fakeLauncher{}
	exec := New(reg, Options{
		ProjectRoot: t.TempDir(),
		Env:         []string{"X=0", "HOME=/home/u"},
		Log:         func(string, string, int) {},
		Launcher:    launcher,
	})

	exec.ExecuteTask(task)
	env := launcher.calls[0].Env

	// Overrides are appended after the snapshot, so the last occurrence of
	// a key is the one the child observes.
	last := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, "X=") {
			last = kv
		}
	}
	if last != "X=1" {
		t.Fatalf("expected override X=1 to win, got %q", last)
	}

	inherited := false
	for _, kv := range env {
		if kv == "HOME=/home/u" {
			inherited = true
		}
	}
	if !inherited {
		t.Fatal("inherited variables must remain unchanged")
	}
}

func TestExecuteTask_WorkingDir(t *testing.T) {
	reg := NewRegistry()
	root := t.TempDir()
	launcher := &fakeLauncher{}
	exec := New(reg, Options{
		ProjectRoot: root,
		Log:         func(string, string, int) {},
		Launcher:    launcher,
	})

	exec.ExecuteTask(&Task{Name: "a", Command: "x"})
	exec.ExecuteTask(&Task{Name: "b", Command: "x", WorkingDir: "sub/dir"})

	if launcher.calls[0].Dir != root {
		t.Fatalf("expected project root %q, got %q", root, launcher.calls[0].Dir)
	}
	if want := filepath.Join(root, "sub", "dir"); launcher.calls[1].Dir != want {
		t.Fatalf("expected %q, got %q", want, launcher.calls[1].Dir)
	}
}

func TestResolveExecutable_Venv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("venv layout differs on windows")
	}

	venv := t.TempDir()
	binDir := filepath.Join(venv, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"pytest", "python"} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	reg := NewRegistry()
	launcher := &fakeLauncher{}
	exec := New(reg, Options{
		ProjectRoot: t.TempDir(),
		VenvPath:    venv,
		Log:         func(string, string, int) {},
		Launcher:    launcher,
	})

	t.Run("command in venv bin", func(t *testing.T) {
		exec.ExecuteTask(&Task{Name: "t", Command: "pytest", UseVenv: true})
		got := launcher.calls[len(launcher.calls)-1].Path
		if want := filepath.Join(binDir, "pytest"); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("python3 resolves to venv interpreter", func(t *testing.T) {
		exec.ExecuteTask(&Task{Name: "t", Command: "python3", UseVenv: true})
		got := launcher.calls[len(launcher.calls)-1].Path
		if want := filepath.Join(binDir, "python"); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("not in venv falls back to PATH name", func(t *testing.T) {
		exec.ExecuteTask(&Task{Name: "t", Command: "docker", UseVenv: true})
		if got := launcher.calls[len(launcher.calls)-1].Path; got != "docker" {
			t.Fatalf("expected bare command, got %q", got)
		}
	})

	t.Run("use_venv false ignores venv", func(t *testing.T) {
		exec.ExecuteTask(&Task{Name: "t", Command: "pytest", UseVenv: false})
		if got := launcher.calls[len(launcher.calls)-1].Path; got != "pytest" {
			t.Fatalf("expected bare command, got %q", got)
		}
	})
}

func TestDryRun(t *testing.T) {
	root := t.TempDir()
	marker := filepath.Join(root, "precious.txt")
	if err := os.WriteFile(marker, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	mustRegister(t, reg,
		&Task{Name: "wipe", Command: "rm", Args: []string{"-rf", marker}, UseVenv: false},
		&Pipeline{Name: "danger", Steps: []Step{{Ref: "wipe"}}},
	)

	exec := New(reg, Options{
		ProjectRoot: root,
		DryRun:      true,
		Log:         func(string, string, int) {},
	})

	run := func() *PipelineResult {
		result, err := exec.Run("danger")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result.(*PipelineResult)
	}

	first := run()
	if len(first.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(first.Results))
	}
	if !first.Results[0].Skipped || first.Results[0].ExitCode != 0 {
		t.Fatalf("expected skipped result with exit 0, got %+v", first.Results[0])
	}

	// Idempotence: a second dry run produces an identical result.
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("dry-run results differ:\n%+v\n%+v", first, second)
	}

	// Zero side effects, even for a destructive command.
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("dry-run must not touch the filesystem: %v", err)
	}
}

func TestDryRun_LogsPipelineSuccess(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg,
		&Task{Name: "lint", Command: "ruff", UseVenv: false},
		&Pipeline{Name: "ci", Steps: []Step{{Ref: "lint"}}},
	)

	var lines []string
	exec := New(reg, Options{
		ProjectRoot: t.TempDir(),
		DryRun:      true,
		Log: func(phase, message string, _ int) {
			lines = append(lines, message)
		},
	})

	if _, err := exec.Run("ci"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A successful dry run reports completion like a live one.
	found := false
	for _, line := range lines {
		if line == "Pipeline completed successfully" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing success log in dry-run, got %q", lines)
	}
}

func TestDryRun_StructuralErrorsStillSurface(t *testing.T) {
	reg := NewRegistry()
	mustRegister(t, reg, &Pipeline{Name: "loop", Steps: []Step{{Ref: "loop"}}})

	exec := New(reg, Options{
		ProjectRoot: t.TempDir(),
		DryRun:      true,
		Log:         func(string, string, int) {},
	})
	_, err := exec.Run("loop")
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("cycle must be reported in dry-run too, got %v", err)
	}
}

func TestLogVerbosityFilter(t *testing.T) {
	reg := NewRegistry()
	task := &Task{Name: "quietly", Command: "x"}
	mustRegister(t, reg, task)

	var lines []string
	exec := New(reg, Options{
		ProjectRoot: t.TempDir(),
		Verbosity:   0,
		Log: func(phase, message string, _ int) {
			lines = append(lines, "["+phase+"] "+message)
		},
		Launcher: &fakeLauncher{},
	})

	exec.ExecuteTask(task)
	// "Running: ..." is a level-1 message; at default verbosity it must be
	// filtered before it reaches the sink.
	for _, line := range lines {
		if strings.Contains(line, "Running:") {
			t.Fatalf("level-1 message leaked at verbosity 0: %q", line)
		}
	}
}

func TestOSLauncher_SpawnFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix exit-code conventions")
	}
	launcher := NewOSLauncher()

	t.Run("not found is 127", func(t *testing.T) {
		out := launcher.Launch(Invocation{
			Path: filepath.Join(t.TempDir(), "definitely-missing"),
			Dir:  t.TempDir(),
			Env:  os.Environ(),
		})
		if out.ExitCode != 127 {
			t.Fatalf("expected 127, got %d", out.ExitCode)
		}
		if out.Error == "" {
			t.Fatal("expected error message for spawn failure")
		}
	})

	t.Run("permission denied is 126", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "noexec.sh")
		if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		out := launcher.Launch(Invocation{Path: script, Dir: dir, Env: os.Environ()})
		if out.ExitCode != 126 {
			t.Fatalf("expected 126, got %d", out.ExitCode)
		}
	})

	t.Run("real exit code propagates", func(t *testing.T) {
		out := launcher.Launch(Invocation{
			Path: "sh",
			Args: []string{"-c", "exit 3"},
			Dir:  t.TempDir(),
			Env:  os.Environ(),
		})
		if out.ExitCode != 3 {
			t.Fatalf("expected 3, got %d", out.ExitCode)
		}
	})

	t.Run("output captured", func(t *testing.T) {
		out := launcher.Launch(Invocation{
			Path: "sh",
			Args: []string{"-c", "echo hello"},
			Dir:  t.TempDir(),
			Env:  os.Environ(),
		})
		if out.ExitCode != 0 || !strings.Contains(out.Output, "hello") {
			t.Fatalf("unexpected outcome: %+v", out)
		}
	})
}
