package main

import (
	"fmt"
	"strings"

	"devflow/cmd/devflow/engine"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task [name] [-- extra args...]",
	Short: "Run a task or pipeline defined in config",
	Long: "Run a task or pipeline from [tool." + appName + ".tasks].\n\n" +
		"With no name, an interactive fuzzy picker lists all entries.\n" +
		"Extra args after -- are appended to a single task's command line;\n" +
		"pipelines have fixed steps and do not accept extra args.",
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		a, err := loadApp()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var suggestions []string
		for _, name := range a.reg.Names() {
			if strings.HasPrefix(name, toComplete) {
				suggestions = append(suggestions, name)
			}
		}
		return suggestions, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			name, err = pickTask(a.reg)
			if err != nil {
				return err
			}
		}

		if extra := extraArgs(args); len(extra) > 0 {
			return runWithExtraArgs(a, name, extra)
		}

		result, err := a.executor().Run(name)
		if err != nil {
			return err
		}
		return finish(result)
	},
}

// extraArgs returns the pass-through args following the task name.
// args is empty on the picker path, where the name came from the fuzzy
// finder instead of the command line.
func extraArgs(args []string) []string {
	if len(args) > 1 {
		return args[1:]
	}
	return nil
}

// pickTask opens a fuzzy finder over all registered names.
func pickTask(reg *engine.Registry) (string, error) {
	names := reg.Names()
	if len(names) == 0 {
		return "", fmt.Errorf("no tasks defined: add entries under [tool.%s.tasks]", appName)
	}
	idx, err := fuzzyfinder.Find(
		names,
		func(i int) string { return names[i] },
		fuzzyfinder.WithPromptString("Run task: "),
	)
	if err != nil {
		return "", fmt.Errorf("no task selected")
	}
	return names[idx], nil
}

// runWithExtraArgs appends pass-through args to a single task's argv.
// Pipelines are rejected: their steps have fixed command lines.
func runWithExtraArgs(a *app, name string, extra []string) error {
	def, ok := a.reg.Get(name)
	if !ok {
		result, err := a.executor().Run(name) // surfaces the not-found error with available names
		if err != nil {
			return err
		}
		return finish(result)
	}

	task, ok := engine.AsTask(def)
	if !ok {
		return fmt.Errorf("%q is a pipeline; extra args are not supported (steps have fixed command lines)", name)
	}

	widened := *task
	widened.Args = append(append([]string(nil), task.Args...), extra...)
	return finish(a.executorOneOffResult(&widened))
}

// executorOneOffResult executes a prepared task directly and returns the
// mapped process outcome.
func (a *app) executorOneOffResult(task *engine.Task) engine.RunResult {
	result := a.executor().ExecuteTask(task)
	return &result
}
