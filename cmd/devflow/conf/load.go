package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load discovers and loads the configuration for a project.
//
// When explicitPath is non-empty it must exist and is the only file
// consulted. Otherwise discovery walks pyproject.toml (only when it carries
// a [tool.devflow] section), devflow.toml, then devflow.yaml / devflow.yml.
// The returned source is the path actually loaded, or "" when only the
// built-in defaults apply.
func Load(projectRoot, explicitPath string) (Config, string, error) {
	if explicitPath != "" {
		cfg, err := loadFile(explicitPath)
		if err != nil {
			return Config{}, "", err
		}
		return cfg, explicitPath, nil
	}

	pyproject := filepath.Join(projectRoot, "pyproject.toml")
	if data, err := os.ReadFile(pyproject); err == nil {
		if hasSection(data, decodeTOML, "tool", "devflow") {
			cfg, err := decodeConfig(data, decodeTOML, pyproject)
			if err != nil {
				return Config{}, "", err
			}
			return cfg, pyproject, nil
		}
	}

	for _, name := range []string{"devflow.toml", "devflow.yaml", "devflow.yml"} {
		path := filepath.Join(projectRoot, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := loadFile(path)
		if err != nil {
			return Config{}, "", err
		}
		return cfg, path, nil
	}

	return Default(), "", nil
}

// loadFile loads a single config file, picking the decoder by extension.
func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	dec := decodeTOML
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		dec = decodeYAML
	}
	return decodeConfig(data, dec, path)
}

// decodeFunc decodes raw bytes into the given target.
type decodeFunc func(data []byte, v any) error

func decodeTOML(data []byte, v any) error { return toml.Unmarshal(data, v) }
func decodeYAML(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// decodeConfig decodes a config document on top of the defaults.
// Both a [tool.devflow] table and a top-level [devflow] table are accepted;
// a file with neither is treated as root-level config.
func decodeConfig(data []byte, dec decodeFunc, path string) (Config, error) {
	cfg := Default()

	var err error
	switch {
	case hasSection(data, dec, "tool", "devflow"):
		wrapper := struct {
			Tool struct {
				Devflow *Config `toml:"devflow" yaml:"devflow"`
			} `toml:"tool" yaml:"tool"`
		}{}
		wrapper.Tool.Devflow = &cfg
		err = dec(data, &wrapper)
	case hasSection(data, dec, "devflow"):
		wrapper := struct {
			Devflow *Config `toml:"devflow" yaml:"devflow"`
		}{Devflow: &cfg}
		err = dec(data, &wrapper)
	default:
		err = dec(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// hasSection reports whether the document contains a (possibly nested)
// mapping at the given key path.
func hasSection(data []byte, dec decodeFunc, keys ...string) bool {
	var doc map[string]any
	if err := dec(data, &doc); err != nil {
		return false
	}
	current := doc
	for i, key := range keys {
		v, ok := current[key]
		if !ok {
			return false
		}
		if i == len(keys)-1 {
			_, isMap := v.(map[string]any)
			return isMap
		}
		current, ok = v.(map[string]any)
		if !ok {
			return false
		}
	}
	return false
}
