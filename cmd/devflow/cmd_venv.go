package main

import (
	"fmt"
	"os"

	"devflow/cmd/devflow/engine"
	"devflow/cmd/devflow/pyenv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var venvCmd = &cobra.Command{
	Use:   "venv",
	Short: "Manage the project virtual environment",
}

var venvInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the virtual environment",
	Long: "Create the project virtual environment with `<python> -m venv`.\n" +
		"The interpreter and directory come from config (default_python, venv_dir).",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := loadApp()
		if err != nil {
			return err
		}

		if pyenv.Exists(a.venvDir) {
			if !force {
				logLine("venv", fmt.Sprintf("Virtual environment already exists at %s (use --force to recreate)", a.venvDir), 0)
				return nil
			}
			if err := removeVenv(a.venvDir); err != nil {
				return err
			}
		}

		result, err := a.runOneOff(&engine.Task{
			Name:    "venv-init",
			Command: a.cfg.DefaultPython,
			Args:    []string{"-m", "venv", a.venvDir},
			UseVenv: false,
		})
		if err != nil {
			return err
		}
		return finish(result)
	},
}

// removeVenv deletes an existing venv after confirmation.
// Dry-run only reports; the confirmation is skipped since nothing happens.
func removeVenv(venvDir string) error {
	if flagDryRun {
		logLine("venv", "Would remove "+venvDir, 0)
		return nil
	}

	confirmed := false
	err := huh.NewConfirm().
		Title("Recreate " + venvDir + "?").
		Description("The existing virtual environment will be deleted.").
		Value(&confirmed).
		Run()
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("aborted")
	}

	if err := os.RemoveAll(venvDir); err != nil {
		return fmt.Errorf("removing %s: %w", venvDir, err)
	}
	return nil
}

func init() {
	venvInitCmd.Flags().Bool("force", false, "recreate the venv if it already exists")
	venvCmd.AddCommand(venvInitCmd)
}
