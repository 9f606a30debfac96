package engine

// Expand resolves name into a flat, ordered list of tasks, following nested
// pipeline references depth-first and left to right.
//
// Cycle detection tracks the current expansion stack, not global visitation:
// two branches may legitimately reference the same leaf task (a diamond),
// and that leaf then appears once per reference in the result. Only a name
// that is already on the stack (a genuine reference loop) is an error.
func Expand(reg *Registry, name string) ([]*Task, error) {
	return expand(reg, name, nil)
}

// expand is the recursive worker. stack holds the pipeline names currently
// being expanded, root first.
func expand(reg *Registry, name string, stack []string) ([]*Task, error) {
	for _, s := range stack {
		if s == name {
			return nil, &CycleError{Path: append(append([]string(nil), stack...), name)}
		}
	}

	def, ok := reg.Get(name)
	if !ok {
		return nil, reg.notFound(name)
	}

	// Terminal case: a plain task expands to itself.
	if task, ok := AsTask(def); ok {
		return []*Task{task}, nil
	}

	pipeline, _ := AsPipeline(def)
	newStack := append(stack, name)

	var tasks []*Task
	for _, step := range pipeline.Steps {
		if step.Task != nil {
			tasks = append(tasks, step.Task)
			continue
		}
		nested, err := expand(reg, step.Ref, newStack)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, nested...)
	}
	return tasks, nil
}
