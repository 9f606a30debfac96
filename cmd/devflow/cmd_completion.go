package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const completionsMarkerBegin = "# >>> " + appName + " completions >>>"
const completionsMarkerEnd = "# <<< " + appName + " completions <<<"

// shellDef describes how to install and source completions for a given shell.
type shellDef struct {
	name           string
	configFilePath string
	// fileName is the completion file name under the completions directory.
	fileName string
	// setupBlock returns the config lines to append when no framework is
	// detected. It receives the completions directory path.
	setupBlock func(dir string) string
	// frameworkPatterns lists source-line patterns that identify a known
	// shell framework (e.g. oh-my-zsh). When one is found in the config
	// file, setupBlockFramework is inserted before it instead.
	frameworkPatterns   []string
	setupBlockFramework func(dir string) string
}

func allShells() []shellDef {
	home := os.Getenv("HOME")
	return []shellDef{
		{
			name:           "zsh",
			configFilePath: filepath.Join(home, ".zshrc"),
			fileName:       "_" + appName,
			setupBlock: func(dir string) string {
				return "fpath=(" + dir + " $fpath)\nautoload -U compinit && compinit"
			},
			frameworkPatterns: []string{
				`source $ZSH/oh-my-zsh.sh`,
				`source "$ZSH/oh-my-zsh.sh"`,
				`. $ZSH/oh-my-zsh.sh`,
				`source $ZDOTDIR/oh-my-zsh.sh`,
			},
			// Framework (oh-my-zsh) calls compinit itself, only fpath is needed.
			setupBlockFramework: func(dir string) string {
				return "fpath=(" + dir + " $fpath)"
			},
		},
		{
			name:           "bash",
			configFilePath: filepath.Join(home, ".bashrc"),
			fileName:       appName,
			setupBlock: func(dir string) string {
				return `for f in ` + dir + `/*; do [ -f "$f" ] && source "$f"; done`
			},
		},
		{
			name:           "fish",
			configFilePath: filepath.Join(home, ".config", "fish", "config.fish"),
			fileName:       appName + ".fish",
			setupBlock: func(dir string) string {
				return "for f in " + dir + "/*.fish; source $f; end"
			},
		},
	}
}

func detectShell() *shellDef {
	shellPath := os.Getenv("SHELL")
	if shellPath == "" {
		return nil
	}
	name := filepath.Base(shellPath)
	for _, s := range allShells() {
		if s.name == name {
			sc := s
			return &sc
		}
	}
	return nil
}

func resolveShell(name string) (*shellDef, error) {
	if name != "" {
		for _, s := range allShells() {
			if s.name == name {
				sc := s
				return &sc, nil
			}
		}
		return nil, fmt.Errorf("unsupported shell %q (supported: zsh, bash, fish)", name)
	}
	s := detectShell()
	if s == nil {
		return nil, fmt.Errorf("could not detect shell from $SHELL; use --shell <zsh|bash|fish>")
	}
	return s, nil
}

// resolveConfigDir resolves the per-user config directory:
// $DEVFLOW_CONFIG_DIR > $XDG_CONFIG_HOME/devflow > ~/.config/devflow.
func resolveConfigDir() (string, error) {
	if dir := os.Getenv(strings.ToUpper(appName) + "_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

func completionsDirFor(shell string) (string, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "completions", shell), nil
}

// generateCompletion renders the completion script for the given shell.
func generateCompletion(shell string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletionV2(&buf, true)
	case "zsh":
		err = rootCmd.GenZshCompletion(&buf)
	case "fish":
		err = rootCmd.GenFishCompletion(&buf, true)
	default:
		return nil, fmt.Errorf("unsupported shell %q (supported: zsh, bash, fish)", shell)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// isShellConfigured reports whether the shell config file contains our block.
func isShellConfigured(shell shellDef) (bool, error) {
	f, err := os.Open(shell.configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), completionsMarkerBegin) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// configureShell writes the completions block to the shell config file.
//
// For shells with framework patterns (zsh + oh-my-zsh): inserts a fpath-only
// block just before the framework source line so the framework's compinit
// picks it up. Falls back to appending if no framework line is found.
func configureShell(shell shellDef, compDir string) error {
	if err := os.MkdirAll(filepath.Dir(shell.configFilePath), 0o755); err != nil {
		return err
	}

	if len(shell.frameworkPatterns) > 0 {
		content, err := os.ReadFile(shell.configFilePath)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		lines := strings.Split(string(content), "\n")
		for _, pattern := range shell.frameworkPatterns {
			if idx := findLine(lines, pattern); idx >= 0 {
				block := completionsMarkerBegin + "\n" + shell.setupBlockFramework(compDir) + "\n" + completionsMarkerEnd
				return writeWithInsert(shell.configFilePath, lines, idx, block)
			}
		}
	}

	block := completionsMarkerBegin + "\n" + shell.setupBlock(compDir) + "\n" + completionsMarkerEnd + "\n"
	f, err := os.OpenFile(shell.configFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString("\n" + block)
	return err
}

// findLine returns the index of the first line matching pattern (trimmed), or -1.
func findLine(lines []string, pattern string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == strings.TrimSpace(pattern) {
			return i
		}
	}
	return -1
}

// writeWithInsert writes lines to path with block inserted before the line at idx.
func writeWithInsert(path string, lines []string, idx int, block string) error {
	out := make([]string, 0, len(lines)+2)
	out = append(out, lines[:idx]...)
	out = append(out, block, "")
	out = append(out, lines[idx:]...)
	return os.WriteFile(path, []byte(strings.Join(out, "\n")), 0o644)
}

var completionCmd = &cobra.Command{
	Use:       "completion [bash|zsh|fish]",
	Short:     "Generate or install shell completions",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		shell, err := resolveShell(name)
		if err != nil {
			return err
		}
		script, err := generateCompletion(shell.name)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(script)
		return err
	},
}

var completionInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Write the completion script and wire it into your shell config",
	RunE: func(cmd *cobra.Command, args []string) error {
		shellName, _ := cmd.Flags().GetString("shell")

		shell, err := resolveShell(shellName)
		if err != nil {
			return err
		}

		script, err := generateCompletion(shell.name)
		if err != nil {
			return err
		}

		compDir, err := completionsDirFor(shell.name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(compDir, 0o755); err != nil {
			return err
		}
		scriptPath := filepath.Join(compDir, shell.fileName)
		if err := os.WriteFile(scriptPath, script, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", scriptPath, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", scriptPath)

		configured, err := isShellConfigured(*shell)
		if err != nil {
			return err
		}
		if configured {
			fmt.Fprintf(os.Stderr, "%s already sources the completions\n", shell.configFilePath)
			return nil
		}
		if err := configureShell(*shell, compDir); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "updated %s; reload your shell or run: source %s\n",
			shell.configFilePath, shell.configFilePath)
		return nil
	},
}

func init() {
	completionInstallCmd.Flags().String("shell", "", "shell to install for (default: auto-detect from $SHELL)")
	completionCmd.AddCommand(completionInstallCmd)
}
