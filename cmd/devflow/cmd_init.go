package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed cmd_init_starter.toml
var starterTOML []byte

const starterHeader = "# " + appName + " project configuration\n" +
	"# Tasks and pipelines live under [tasks.<name>]; a task entry has a\n" +
	"# `command` key, a pipeline entry has a `pipeline` key listing steps.\n" +
	"# Run `" + appName + " list` to see what is defined.\n\n"

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter " + appName + ".toml",
	Long: "Create a starter " + appName + ".toml with the default settings\n" +
		"commented out and a few example tasks. Writes into the current\n" +
		"directory unless a target directory is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}

		path := filepath.Join(dir, appName+".toml")
		if err := writeInitFile(path, starterHeader, starterTOML, force); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
		fmt.Fprintf(os.Stderr, "\nRun `%s list` to see the example tasks.\n", appName)
		return nil
	},
}

func writeInitFile(path, header string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	fmt.Fprint(f, header)
	_, err = f.Write(content)
	return err
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
}
