package main

import (
	"devflow/cmd/devflow/conf"
	"devflow/cmd/devflow/engine"
	"devflow/cmd/devflow/pyenv"
)

// app bundles everything a command needs: resolved project root, loaded
// config, the task registry, and the venv path (empty when no usable venv
// exists, so use_venv tasks fall back to PATH resolution).
type app struct {
	root     string
	cfg      conf.Config
	reg      *engine.Registry
	venvDir  string
	venvPath string
}

// loadApp resolves the project root, loads config, and builds the registry.
// Called lazily by the commands that need project context, so `init` and
// `completion` keep working outside any project.
func loadApp() (*app, error) {
	root, err := pyenv.FindProjectRoot(flagChdir)
	if err != nil {
		return nil, err
	}

	cfg, _, err := conf.Load(root, flagConfig)
	if err != nil {
		return nil, err
	}

	reg, err := engine.BuildRegistry(cfg.Tasks)
	if err != nil {
		return nil, err
	}

	venvDir := pyenv.VenvDir(root, cfg.VenvDir)
	venvPath := ""
	if pyenv.Exists(venvDir) {
		venvPath = venvDir
	}

	return &app{
		root:     root,
		cfg:      cfg,
		reg:      reg,
		venvDir:  venvDir,
		venvPath: venvPath,
	}, nil
}

// executor builds an engine executor over the configured registry with the
// global flags applied.
func (a *app) executor() *engine.Executor {
	return a.executorFor(a.reg)
}

// executorFor builds an executor over an arbitrary registry, used by the
// commands that assemble one-off tasks and pipelines (build, test, publish,
// venv, deps) instead of running configured entries.
func (a *app) executorFor(reg *engine.Registry) *engine.Executor {
	return engine.New(reg, engine.Options{
		ProjectRoot: a.root,
		VenvPath:    a.venvPath,
		DryRun:      flagDryRun,
		Verbosity:   verbosity(),
		Log:         logLine,
	})
}

// runOneOff registers a single definition in a fresh registry and runs it.
func (a *app) runOneOff(def engine.Definition) (engine.RunResult, error) {
	reg := engine.NewRegistry()
	if err := reg.Register(def); err != nil {
		return nil, err
	}
	return a.executorFor(reg).Run(def.DefName())
}
