package main

import (
	"devflow/cmd/devflow/engine"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test [-- extra args...]",
	Short: "Run the test suite",
	Long: "Run the configured test runner inside the venv. Extra args after --\n" +
		"are passed through, e.g. `" + appName + " test -- -k smoke`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		result, err := a.runOneOff(testTask(a, args))
		if err != nil {
			return err
		}
		return finish(result)
	},
}

func testTask(a *app, extra []string) *engine.Task {
	return &engine.Task{
		Name:    "test",
		Command: a.cfg.TestRunner,
		Args:    append([]string(nil), extra...),
		UseVenv: true,
	}
}
