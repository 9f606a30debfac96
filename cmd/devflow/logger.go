package main

import (
	"fmt"
	"os"
	"strings"

	"devflow/cmd/devflow/engine"
	"devflow/pkg/lib"

	"github.com/charmbracelet/lipgloss"
)

// Lipgloss styles for engine log lines. The engine filters by verbosity
// before calling; this sink only renders.
var (
	phaseStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// logLine is the engine.LogFunc for the CLI: phase-prefixed lines on
// stderr, errors (level -1) highlighted.
func logLine(phase, message string, level int) {
	prefix := ""
	if phase != "" {
		prefix = phaseStyle.Render("["+phase+"]") + " "
	}
	if level < 0 {
		message = errStyle.Render(message)
	}
	fmt.Fprintln(os.Stderr, prefix+message)
}

// finish maps a run result to the process outcome: prints the failing
// step's captured output (it was swallowed in non-verbose mode) and returns
// a CodeError carrying the effective exit code.
func finish(result engine.RunResult) error {
	switch res := result.(type) {
	case *engine.ExecutionResult:
		reportFailure(*res)
		return lib.WithCode(res.ExitCode)
	case *engine.PipelineResult:
		if res.ShortCircuited {
			last := res.Results[len(res.Results)-1]
			reportFailure(last)
		}
		return lib.WithCode(res.ExitCode())
	}
	return nil
}

// reportFailure replays a failed task's captured output so the user sees
// what the tool printed, even at default verbosity.
func reportFailure(res engine.ExecutionResult) {
	if res.ExitCode == 0 || res.Skipped {
		return
	}
	if out := strings.TrimSpace(res.Output); out != "" {
		fmt.Fprintln(os.Stderr, dimStyle.Render("--- output of "+res.TaskName+" ---"))
		fmt.Fprintln(os.Stderr, out)
	}
}
