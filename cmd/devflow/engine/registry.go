package engine

import (
	"fmt"
	"sort"
)

// Registry holds named task and pipeline definitions in a single namespace.
// It is built once from configuration data and never mutated afterwards, so
// expansion and execution can read it without locking.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
	}
}

// Register adds a definition to the registry.
// Returns ErrDuplicateName if the name is already taken; tasks and
// pipelines share one namespace.
func (r *Registry) Register(d Definition) error {
	name := d.DefName()
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.defs[name] = d
	return nil
}

// Get returns the definition for the given name.
func (r *Registry) Get(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int { return len(r.defs) }

// notFound builds a NotFoundError for name against this registry.
func (r *Registry) notFound(name string) error {
	return &NotFoundError{Name: name, Available: r.Names()}
}

// ---------------------------------------------------------------------------
// Config adaptation
// ---------------------------------------------------------------------------

// BuildRegistry translates the externally loaded `tasks` mapping into a
// Registry. Each entry is classified by shape: a `pipeline` key makes it a
// Pipeline, a `command` key makes it a Task, and an entry with neither (or
// both) is a configuration error reported here, not deferred to execution.
func BuildRegistry(tasks map[string]map[string]any) (*Registry, error) {
	reg := NewRegistry()

	// Deterministic iteration so duplicate/shape errors are stable.
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def, err := buildDefinition(name, tasks[name])
		if err != nil {
			return nil, err
		}
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("phase=config path=%s: %w", name, err)
		}
	}
	return reg, nil
}

// buildDefinition classifies and converts one config entry.
func buildDefinition(name string, entry map[string]any) (Definition, error) {
	_, hasPipeline := entry["pipeline"]
	_, hasCommand := entry["command"]

	switch {
	case hasPipeline && hasCommand:
		return nil, fmt.Errorf("phase=config path=%s: %w: cannot combine command and pipeline", name, ErrInvalidTask)
	case hasPipeline:
		return buildPipeline(name, entry)
	case hasCommand:
		return buildTask(name, entry)
	default:
		return nil, fmt.Errorf("phase=config path=%s: %w: entry must define command or pipeline", name, ErrInvalidTask)
	}
}

// buildTask converts a task-shaped entry. The command must be a non-empty
// string; args and env values must all be strings.
func buildTask(name string, entry map[string]any) (*Task, error) {
	command, err := stringField(name, entry, "command")
	if err != nil {
		return nil, err
	}
	if command == "" {
		return nil, fmt.Errorf("phase=config path=%s: %w: command must not be empty", name, ErrInvalidTask)
	}

	args, err := stringListField(name, entry, "args")
	if err != nil {
		return nil, err
	}
	env, err := stringMapField(name, entry, "env")
	if err != nil {
		return nil, err
	}
	workingDir, err := stringField(name, entry, "working_dir")
	if err != nil {
		return nil, err
	}
	useVenv, err := boolField(name, entry, "use_venv", true)
	if err != nil {
		return nil, err
	}

	return &Task{
		Name:       name,
		Command:    command,
		Args:       args,
		UseVenv:    useVenv,
		Env:        env,
		WorkingDir: workingDir,
	}, nil
}

// buildPipeline converts a pipeline-shaped entry. Each step is either a
// string reference or an inline task table.
func buildPipeline(name string, entry map[string]any) (*Pipeline, error) {
	raw, ok := entry["pipeline"].([]any)
	if !ok {
		return nil, fmt.Errorf("phase=config path=%s: %w: pipeline must be a list", name, ErrInvalidTask)
	}

	steps := make([]Step, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			if v == "" {
				return nil, fmt.Errorf("phase=config path=%s[%d]: %w: step reference must not be empty", name, i, ErrInvalidTask)
			}
			steps = append(steps, Step{Ref: v})
		case map[string]any:
			stepName := fmt.Sprintf("%s[%d]", name, i)
			if n, ok := v["name"].(string); ok && n != "" {
				stepName = n
			}
			task, err := buildTask(stepName, v)
			if err != nil {
				return nil, err
			}
			steps = append(steps, Step{Task: task})
		default:
			return nil, fmt.Errorf("phase=config path=%s[%d]: %w: step must be a task name or an inline task table", name, i, ErrInvalidTask)
		}
	}
	return &Pipeline{Name: name, Steps: steps}, nil
}

// ---- Field extraction helpers ----------------------------------------------

func stringField(path string, entry map[string]any, key string) (string, error) {
	v, ok := entry[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("phase=config path=%s: %w: %s must be a string", path, ErrInvalidTask, key)
	}
	return s, nil
}

func stringListField(path string, entry map[string]any, key string) ([]string, error) {
	v, ok := entry[key]
	if !ok {
		return nil, nil
	}
	// Decoders hand heterogeneous lists back as []any; a fully typed
	// []string can also occur depending on the source format.
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("phase=config path=%s: %w: %s[%d] must be a string", path, ErrInvalidTask, key, i)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("phase=config path=%s: %w: %s must be a list of strings", path, ErrInvalidTask, key)
	}
}

func stringMapField(path string, entry map[string]any, key string) (map[string]string, error) {
	v, ok := entry[key]
	if !ok {
		return nil, nil
	}
	switch m := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, item := range m {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("phase=config path=%s: %w: %s.%s must be a string", path, ErrInvalidTask, key, k)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("phase=config path=%s: %w: %s must be a string mapping", path, ErrInvalidTask, key)
	}
}

func boolField(path string, entry map[string]any, key string, def bool) (bool, error) {
	v, ok := entry[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("phase=config path=%s: %w: %s must be a boolean", path, ErrInvalidTask, key)
	}
	return b, nil
}
