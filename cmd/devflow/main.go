package main

import (
	"devflow/pkg/lib"

	"github.com/spf13/cobra"
)

// appName is the single source of truth for the application name.
// Config file names, completion paths, and messages are derived from it.
const appName = "devflow"

var (
	flagConfig  string
	flagChdir   string
	flagDryRun  bool
	flagVerbose int
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Project operations for Python projects",
	Long: appName + " replaces ad-hoc project shell scripts with configured\n" +
		"tasks and pipelines: venv management, dependency sync, build, test,\n" +
		"and publish, plus anything defined under [tool." + appName + ".tasks].",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"explicit config file (default: pyproject.toml / "+appName+".toml discovery)")
	rootCmd.PersistentFlags().StringVarP(&flagChdir, "chdir", "C", "",
		"run as if started in this directory")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false,
		"print what would be executed without running anything")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v",
		"increase verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false,
		"suppress all output except errors")

	rootCmd.AddCommand(
		taskCmd,
		listCmd,
		venvCmd,
		depsCmd,
		buildCmd,
		testCmd,
		publishCmd,
		initCmd,
		completionCmd,
	)

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		lib.Exit(err)
	}
}

// verbosity folds the quiet flag and repeated -v into the engine's single
// verbosity scale: -1 quiet, 0 normal, 1+ verbose.
func verbosity() int {
	if flagQuiet {
		return -1
	}
	return flagVerbose
}
