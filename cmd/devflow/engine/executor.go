package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// LogFunc receives engine log lines: the phase (task or pipeline name), the
// message, and the verbosity level the message belongs to. The engine never
// writes to an output stream itself.
type LogFunc func(phase, message string, level int)

// Options configures an Executor.
//
// VenvPath is the root of the project virtual environment; when empty,
// use_venv tasks fall back to ordinary PATH resolution. Env is the inherited
// environment snapshot; nil means snapshot os.Environ at construction.
// Launcher overrides the launcher chosen from DryRun; tests inject fakes
// through it.
type Options struct {
	ProjectRoot string
	VenvPath    string
	DryRun      bool
	Verbosity   int
	Log         LogFunc
	Env         []string
	Launcher    Launcher
}

// Executor runs tasks and pipelines against a read-only Registry.
// Execution is single-threaded and strictly sequential: within a pipeline,
// step N+1 never starts before step N's process has exited.
type Executor struct {
	reg         *Registry
	projectRoot string
	venvPath    string
	dryRun      bool
	verbosity   int
	log         LogFunc
	env         []string
	launcher    Launcher
}

// New creates an Executor over the given registry.
func New(reg *Registry, opts Options) *Executor {
	root := opts.ProjectRoot
	if root == "" {
		root, _ = os.Getwd()
	}
	env := opts.Env
	if env == nil {
		env = os.Environ()
	}
	logFn := opts.Log
	if logFn == nil {
		logFn = func(phase, message string, _ int) {
			prefix := ""
			if phase != "" {
				prefix = "[" + phase + "] "
			}
			fmt.Fprintln(os.Stderr, prefix+message)
		}
	}
	launcher := opts.Launcher
	if launcher == nil {
		if opts.DryRun {
			launcher = NewDryLauncher()
		} else {
			launcher = NewOSLauncher()
		}
	}
	return &Executor{
		reg:         reg,
		projectRoot: root,
		venvPath:    opts.VenvPath,
		dryRun:      opts.DryRun,
		verbosity:   opts.Verbosity,
		log:         logFn,
		env:         env,
		launcher:    launcher,
	}
}

// logf filters by verbosity before forwarding to the sink.
// Level -1 always shows (even in quiet mode -1), 0 shows at default
// verbosity, 1+ only when verbosity was raised.
func (e *Executor) logf(phase, message string, level int) {
	if e.verbosity < level {
		return
	}
	e.log(phase, message, level)
}

// Run executes the named task or pipeline.
//
// A plain task returns its *ExecutionResult directly; a pipeline is expanded
// first (so structural errors abort before any process spawns) and then
// executed in order with fail-fast short-circuiting. The error return is
// reserved for structural failures: unknown names and cycles.
func (e *Executor) Run(name string) (RunResult, error) {
	def, ok := e.reg.Get(name)
	if !ok {
		return nil, e.reg.notFound(name)
	}

	if task, ok := AsTask(def); ok {
		e.logf(task.Name, "Starting task", 0)
		result := e.ExecuteTask(task)
		if result.ExitCode == 0 && !result.Skipped {
			e.logf(task.Name, "Completed successfully", 0)
		}
		return &result, nil
	}

	e.logf(name, "Starting pipeline", 0)

	tasks, err := Expand(e.reg, name)
	if err != nil {
		return nil, err
	}

	pipeline := &PipelineResult{PipelineName: name}
	for _, task := range tasks {
		e.logf(name, "Running step: "+task.Name, 0)
		result := e.ExecuteTask(task)
		pipeline.Results = append(pipeline.Results, result)

		if result.ExitCode != 0 {
			e.logf(name, fmt.Sprintf("Pipeline short-circuited at %q with exit code %d",
				task.Name, result.ExitCode), -1)
			pipeline.ShortCircuited = true
			break
		}
	}

	if pipeline.Success() {
		e.logf(name, "Pipeline completed successfully", 0)
	}
	return pipeline, nil
}

// ExecuteTask resolves and launches a single task.
// Spawn failures are reported inside the result, never as a Go error, so
// pipeline short-circuiting treats them uniformly with non-zero exits.
func (e *Executor) ExecuteTask(task *Task) ExecutionResult {
	executable := e.resolveExecutable(task)
	cmdline := strings.Join(append([]string{executable}, task.Args...), " ")

	if e.dryRun {
		e.logf(task.Name, "Would run: "+cmdline, 0)
	} else {
		e.logf(task.Name, "Running: "+cmdline, 1)
	}

	outcome := e.launcher.Launch(Invocation{
		Path:   executable,
		Args:   task.Args,
		Dir:    e.workingDir(task),
		Env:    e.buildEnv(task),
		Stream: e.verbosity >= 1,
	})

	if outcome.Error != "" {
		e.logf(task.Name, outcome.Error, -1)
	} else if outcome.ExitCode != 0 {
		e.logf(task.Name, fmt.Sprintf("Failed with exit code %d", outcome.ExitCode), -1)
	}

	return ExecutionResult{
		TaskName: task.Name,
		ExitCode: outcome.ExitCode,
		Output:   outcome.Output,
		Skipped:  outcome.Skipped,
		Error:    outcome.Error,
	}
}

// resolveExecutable maps a task command to the concrete executable to spawn.
// For use_venv tasks with a configured venv, the venv's executable directory
// is preferred; `python`/`python3` resolve to the venv interpreter itself.
// Anything not found there falls back to plain PATH resolution by the OS.
func (e *Executor) resolveExecutable(task *Task) string {
	if !task.UseVenv || e.venvPath == "" {
		return task.Command
	}

	binDir := filepath.Join(e.venvPath, venvBinName())

	candidate := filepath.Join(binDir, task.Command)
	if runtime.GOOS == "windows" && filepath.Ext(candidate) == "" {
		candidate += ".exe"
	}
	if fileExists(candidate) {
		return candidate
	}

	if task.Command == "python" || task.Command == "python3" {
		python := filepath.Join(binDir, "python")
		if runtime.GOOS == "windows" {
			python += ".exe"
		}
		if fileExists(python) {
			return python
		}
	}

	return task.Command
}

// buildEnv merges task overrides onto a copy of the inherited snapshot.
// exec gives later entries precedence, so appending the overrides after the
// snapshot makes override keys win. Keys are sorted for determinism.
func (e *Executor) buildEnv(task *Task) []string {
	env := append([]string(nil), e.env...)
	if len(task.Env) == 0 {
		return env
	}
	keys := make([]string, 0, len(task.Env))
	for k := range task.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+task.Env[k])
	}
	return env
}

// workingDir resolves the task working directory against the project root.
func (e *Executor) workingDir(task *Task) string {
	if task.WorkingDir == "" {
		return e.projectRoot
	}
	if filepath.IsAbs(task.WorkingDir) {
		return task.WorkingDir
	}
	return filepath.Join(e.projectRoot, task.WorkingDir)
}

// venvBinName is the executable directory inside a venv.
func venvBinName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
