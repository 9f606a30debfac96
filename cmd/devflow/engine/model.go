package engine

// Definition is the sealed interface for registry entries.
// Only Task and Pipeline implement it.
// The unexported isDefinition() method prevents external implementations.
type Definition interface {
	isDefinition()
	DefName() string
}

// Task is an atomic unit of work: one executable invocation.
// Command is an executable name or path, never a shell string; Args are
// passed verbatim as discrete argv elements.
// Env holds environment overrides merged on top of the inherited environment.
// WorkingDir is optional and resolved against the project root.
type Task struct {
	Name       string
	Command    string
	Args       []string
	UseVenv    bool
	Env        map[string]string
	WorkingDir string
}

// Pipeline is a named, ordered list of steps.
// Steps may be empty: an empty pipeline trivially succeeds.
type Pipeline struct {
	Name  string
	Steps []Step
}

// Step is one entry of a pipeline: either a reference to another registry
// entry or an inline task. Exactly one of Ref and Task is set; the registry
// builder enforces this before a Step ever reaches the expander.
type Step struct {
	Ref  string
	Task *Task
}

func (t *Task) isDefinition()     {}
func (p *Pipeline) isDefinition() {}

func (t *Task) DefName() string     { return t.Name }
func (p *Pipeline) DefName() string { return p.Name }

// AsTask returns the definition as a *Task.
// The second return value is false if the definition is not a Task.
func AsTask(d Definition) (*Task, bool) {
	t, ok := d.(*Task)
	return t, ok
}

// AsPipeline returns the definition as a *Pipeline.
// The second return value is false if the definition is not a Pipeline.
func AsPipeline(d Definition) (*Pipeline, bool) {
	p, ok := d.(*Pipeline)
	return p, ok
}
