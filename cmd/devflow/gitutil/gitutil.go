// Package gitutil wraps the git executable for the publish workflow:
// working-tree cleanliness checks and tag creation. Commands run with an
// explicit argument list, never through a shell.
package gitutil

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrGitNotFound = errors.New("git executable not found")

// run executes git with the given arguments in dir and returns trimmed
// combined output.
func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrGitNotFound
		}
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// IsRepository reports whether dir is inside a git work tree.
func IsRepository(dir string) bool {
	_, err := run(dir, "rev-parse", "--git-dir")
	return err == nil
}

// IsWorkingTreeClean reports whether the working tree has no uncommitted
// changes (porcelain output is empty).
func IsWorkingTreeClean(dir string) (bool, error) {
	out, err := run(dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// TagExists reports whether the given tag already exists.
func TagExists(dir, tag string) (bool, error) {
	out, err := run(dir, "tag", "--list", tag)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// CreateTag creates an annotated tag when message is non-empty, otherwise a
// lightweight one.
func CreateTag(dir, tag, message string) error {
	args := []string{"tag"}
	if message != "" {
		args = append(args, "-a", tag, "-m", message)
	} else {
		args = append(args, tag)
	}
	_, err := run(dir, args...)
	return err
}

// FormatTag renders a publish tag from the configured format, substituting
// {version} and applying the optional prefix.
func FormatTag(format, prefix, version string) string {
	if format == "" {
		format = "v{version}"
	}
	return prefix + strings.ReplaceAll(format, "{version}", version)
}
