package main

import (
	"fmt"

	"devflow/cmd/devflow/engine"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured tasks and pipelines",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		printEntries(a.reg)
		return nil
	},
}

// printEntries prints all registry entries aligned, with their kind and a
// short description of what would run.
func printEntries(reg *engine.Registry) {
	names := reg.Names()
	if len(names) == 0 {
		fmt.Println("no tasks defined")
		return
	}

	maxLen := 0
	for _, name := range names {
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}

	for _, name := range names {
		def, _ := reg.Get(name)
		fmt.Printf("%-*s  %s\n", maxLen, name, dimStyle.Render(describe(def)))
	}
}

// describe summarizes a definition for the listing.
func describe(def engine.Definition) string {
	switch d := def.(type) {
	case *engine.Task:
		return "[task] " + d.Command
	case *engine.Pipeline:
		return fmt.Sprintf("[pipeline] %d steps", len(d.Steps))
	}
	return ""
}
