package lib

import (
	"errors"
	"fmt"
	"os"
)

// CodeError carries a specific process exit code through a cobra RunE chain.
// It is used when a task or pipeline failed in a way that was already
// reported to the user, so main should exit with the code and stay quiet.
type CodeError struct {
	Code int
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// WithCode returns a CodeError for non-zero codes and nil for zero.
func WithCode(code int) error {
	if code == 0 {
		return nil
	}
	return &CodeError{Code: code}
}

// Exit terminates the process for the given error: a CodeError exits
// silently with its code, anything else is printed and exits with code 1.
func Exit(err error) {
	var ce *CodeError
	if errors.As(err, &ce) {
		os.Exit(ce.Code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
