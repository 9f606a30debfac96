// Package pyenv locates the project root and the paths inside a Python
// virtual environment. All venv-aware code goes through these helpers so the
// bin-vs-Scripts platform split lives in one place.
package pyenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// rootMarkers are the files whose presence identifies a project root.
var rootMarkers = []string{"pyproject.toml", "devflow.toml", "devflow.yaml", "devflow.yml"}

// FindProjectRoot walks upward from start until it finds a directory
// containing a project marker file. An empty start means the current
// working directory.
func FindProjectRoot(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	start, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	current := start
	for {
		if hasMarker(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", fmt.Errorf(
		"project root not found: no pyproject.toml or devflow.toml in %s or any parent directory", start)
}

func hasMarker(dir string) bool {
	for _, marker := range rootMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// VenvDir returns the absolute venv directory for a project.
func VenvDir(projectRoot, venvDirName string) string {
	if venvDirName == "" {
		venvDirName = ".venv"
	}
	if filepath.IsAbs(venvDirName) {
		return venvDirName
	}
	return filepath.Join(projectRoot, venvDirName)
}

// BinDir returns the executable directory inside a venv: bin on Unix,
// Scripts on Windows.
func BinDir(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts")
	}
	return filepath.Join(venvDir, "bin")
}

// Python returns the venv's Python interpreter path.
func Python(venvDir string) string {
	name := "python"
	if runtime.GOOS == "windows" {
		name = "python.exe"
	}
	return filepath.Join(BinDir(venvDir), name)
}

// Pip returns the venv's pip executable path.
func Pip(venvDir string) string {
	name := "pip"
	if runtime.GOOS == "windows" {
		name = "pip.exe"
	}
	return filepath.Join(BinDir(venvDir), name)
}

// Exists reports whether a usable venv is present: the directory exists and
// carries a Python interpreter.
func Exists(venvDir string) bool {
	info, err := os.Stat(venvDir)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(Python(venvDir))
	return err == nil
}
