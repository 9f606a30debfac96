package main

import (
	"fmt"
	"os"
	"path/filepath"

	"devflow/cmd/devflow/engine"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [-- extra args...]",
	Short: "Build distribution artifacts",
	Long: "Build distribution artifacts with the configured backend\n" +
		"(`python -m <build_backend>` inside the venv). The dist directory is\n" +
		"cleaned first unless --no-clean is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		noClean, _ := cmd.Flags().GetBool("no-clean")

		a, err := loadApp()
		if err != nil {
			return err
		}

		if !noClean {
			if err := cleanDist(a); err != nil {
				return err
			}
		}

		result, err := a.runOneOff(buildTask(a, args))
		if err != nil {
			return err
		}
		return finish(result)
	},
}

// buildTask assembles the backend invocation. Every supported backend
// (build, flit, hatchling) is a runnable module, so the command line is
// always `python -m <backend>`.
func buildTask(a *app, extra []string) *engine.Task {
	return &engine.Task{
		Name:    "build",
		Command: "python",
		Args:    append([]string{"-m", a.cfg.BuildBackend}, extra...),
		UseVenv: true,
	}
}

// cleanDist removes the dist directory so stale artifacts never end up in
// an upload.
func cleanDist(a *app) error {
	dist := filepath.Join(a.root, a.cfg.Paths.DistDir)
	if _, err := os.Stat(dist); err != nil {
		return nil
	}
	if flagDryRun {
		logLine("build", "Would remove "+dist, 0)
		return nil
	}
	logLine("build", "Removing "+dist, 1)
	if err := os.RemoveAll(dist); err != nil {
		return fmt.Errorf("cleaning %s: %w", dist, err)
	}
	return nil
}

func init() {
	buildCmd.Flags().Bool("no-clean", false, "keep existing artifacts in the dist directory")
}
