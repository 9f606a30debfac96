package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrCycleDetected = errors.New("cycle detected")
	ErrInvalidTask   = errors.New("invalid task definition")
	ErrDuplicateName = errors.New("duplicate task name")
)

// NotFoundError reports a reference to a name that is not in the registry.
// Available holds every registered name, sorted, so the caller can print an
// actionable message without re-deriving it.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("task %q not found", e.Name)
	}
	return fmt.Sprintf("task %q not found. Available tasks: %s",
		e.Name, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrTaskNotFound }

// CycleError reports a reference loop in pipeline definitions.
// Path is the full expansion path including the repeated name, so the
// message reads e.g. "a -> b -> a".
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected in pipeline: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }
