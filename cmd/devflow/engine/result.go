package engine

// RunResult is the sealed interface returned by Executor.Run.
// Only ExecutionResult and PipelineResult implement it: a plain task yields
// an ExecutionResult, a pipeline yields a PipelineResult.
type RunResult interface {
	isRunResult()
}

// ExecutionResult is the immutable record of one task execution.
// Error is set only when the process could not be started at all; a task
// that ran and exited non-zero has ExitCode set and Error empty.
// Skipped is true only in dry-run mode.
type ExecutionResult struct {
	TaskName string
	ExitCode int
	Output   string
	Skipped  bool
	Error    string
}

// PipelineResult aggregates the results of an executed pipeline.
// Results holds one entry per step that actually ran; when ShortCircuited
// is true, a step failed and the remaining steps were never started.
type PipelineResult struct {
	PipelineName   string
	Results        []ExecutionResult
	ShortCircuited bool
}

func (r *ExecutionResult) isRunResult() {}
func (r *PipelineResult) isRunResult()  {}

// ExitCode returns the pipeline's effective exit code: the first non-zero
// step code in order, or 0 if every step succeeded.
func (r *PipelineResult) ExitCode() int {
	for _, res := range r.Results {
		if res.ExitCode != 0 {
			return res.ExitCode
		}
	}
	return 0
}

// Success reports whether the pipeline completed with exit code 0.
func (r *PipelineResult) Success() bool { return r.ExitCode() == 0 }

// ResultExitCode returns the effective exit code of any RunResult.
func ResultExitCode(r RunResult) int {
	switch res := r.(type) {
	case *ExecutionResult:
		return res.ExitCode
	case *PipelineResult:
		return res.ExitCode()
	}
	return 0
}
