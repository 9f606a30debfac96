package main

import (
	"fmt"
	"os"
	"path/filepath"

	"devflow/cmd/devflow/engine"

	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Manage project dependencies",
}

var depsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Install dependencies from the requirements files",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, _ := cmd.Flags().GetBool("dev")

		a, err := loadApp()
		if err != nil {
			return err
		}

		files := []string{a.cfg.Deps.Requirements}
		if dev {
			files = append(files, a.cfg.Deps.DevRequirements)
		}

		var steps []engine.Step
		for _, file := range files {
			if _, err := os.Stat(filepath.Join(a.root, file)); err != nil {
				logLine("deps", "Skipping missing "+file, 0)
				continue
			}
			steps = append(steps, engine.Step{Task: &engine.Task{
				Name:    "pip-install " + file,
				Command: "pip",
				Args:    []string{"install", "-r", file},
				UseVenv: true,
			}})
		}
		if len(steps) == 0 {
			return fmt.Errorf("no requirements files found (looked for %s)", a.cfg.Deps.Requirements)
		}

		result, err := a.runOneOff(&engine.Pipeline{Name: "deps-sync", Steps: steps})
		if err != nil {
			return err
		}
		return finish(result)
	},
}

var depsFreezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Write the resolved dependency set to the freeze file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		// Freeze depends on captured output, so this executor always
		// captures regardless of -v.
		reg := engine.NewRegistry()
		task := &engine.Task{
			Name:    "pip-freeze",
			Command: "pip",
			Args:    []string{"freeze"},
			UseVenv: true,
		}
		if err := reg.Register(task); err != nil {
			return err
		}
		exec := engine.New(reg, engine.Options{
			ProjectRoot: a.root,
			VenvPath:    a.venvPath,
			DryRun:      flagDryRun,
			Verbosity:   0,
			Log:         logLine,
		})

		result := exec.ExecuteTask(task)
		out := filepath.Join(a.root, a.cfg.Deps.FreezeOutput)
		if result.Skipped {
			logLine("deps", "Would write "+out, 0)
			return nil
		}
		if result.ExitCode != 0 {
			reportFailure(result)
			return fmt.Errorf("pip freeze failed with exit code %d", result.ExitCode)
		}

		if err := os.WriteFile(out, []byte(result.Output), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		logLine("deps", "Wrote "+out, 0)
		return nil
	},
}

func init() {
	depsSyncCmd.Flags().Bool("dev", false, "also install dev requirements")
	depsCmd.AddCommand(depsSyncCmd, depsFreezeCmd)
}
