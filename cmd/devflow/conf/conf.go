// Package conf loads devflow configuration.
//
// Discovery order: an explicit --config path, then [tool.devflow] in
// pyproject.toml, then devflow.toml, then devflow.yaml / devflow.yml, then
// built-in defaults. Files are decoded on top of the defaults, so omitted
// keys keep their default values at any nesting depth.
package conf

// Config is the root devflow configuration.
// Tasks is kept as the raw nested mapping: classifying entries into tasks
// and pipelines is the engine registry's job, and errors there carry
// per-entry context.
type Config struct {
	VenvDir       string `toml:"venv_dir" yaml:"venv_dir"`
	DefaultPython string `toml:"default_python" yaml:"default_python"`
	BuildBackend  string `toml:"build_backend" yaml:"build_backend"`
	TestRunner    string `toml:"test_runner" yaml:"test_runner"`

	Paths   PathsConfig   `toml:"paths" yaml:"paths"`
	Publish PublishConfig `toml:"publish" yaml:"publish"`
	Deps    DepsConfig    `toml:"deps" yaml:"deps"`

	Tasks map[string]map[string]any `toml:"tasks" yaml:"tasks"`
}

// PathsConfig holds project-relative directory names.
type PathsConfig struct {
	DistDir  string `toml:"dist_dir" yaml:"dist_dir"`
	TestsDir string `toml:"tests_dir" yaml:"tests_dir"`
	SrcDir   string `toml:"src_dir" yaml:"src_dir"`
}

// PublishConfig configures `devflow publish`.
type PublishConfig struct {
	Repository              string   `toml:"repository" yaml:"repository"`
	Sign                    bool     `toml:"sign" yaml:"sign"`
	TagOnPublish            bool     `toml:"tag_on_publish" yaml:"tag_on_publish"`
	TagFormat               string   `toml:"tag_format" yaml:"tag_format"`
	TagPrefix               string   `toml:"tag_prefix" yaml:"tag_prefix"`
	RequireCleanWorkingTree bool     `toml:"require_clean_working_tree" yaml:"require_clean_working_tree"`
	RunTestsBeforePublish   bool     `toml:"run_tests_before_publish" yaml:"run_tests_before_publish"`
	TwineArgs               []string `toml:"twine_args" yaml:"twine_args"`
}

// DepsConfig configures `devflow deps`.
type DepsConfig struct {
	Requirements    string `toml:"requirements" yaml:"requirements"`
	DevRequirements string `toml:"dev_requirements" yaml:"dev_requirements"`
	FreezeOutput    string `toml:"freeze_output" yaml:"freeze_output"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		VenvDir:       ".venv",
		DefaultPython: "python3",
		BuildBackend:  "build",
		TestRunner:    "pytest",
		Paths: PathsConfig{
			DistDir:  "dist",
			TestsDir: "tests",
			SrcDir:   "src",
		},
		Publish: PublishConfig{
			Repository:              "pypi",
			TagFormat:               "v{version}",
			RequireCleanWorkingTree: true,
		},
		Deps: DepsConfig{
			Requirements:    "requirements.txt",
			DevRequirements: "requirements-dev.txt",
			FreezeOutput:    "requirements-freeze.txt",
		},
	}
}
