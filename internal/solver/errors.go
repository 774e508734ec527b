package solver

import "fmt"

// SetupError reports an invalid solver-setup construction: a mesh exceeding
// the practical cell ceiling, or port geometry outside the padded domain.
type SetupError struct {
	Solver string
	Detail string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup (%s): %s", e.Solver, e.Detail)
}

// SubmissionError reports a setup the solver client rejected before any
// execution started.
type SubmissionError struct {
	Solver string
	Detail string
	Err    error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("submission (%s): %s", e.Solver, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ExecutionError reports a solver that ran and failed: crashed engine,
// nonzero exit, or a cloud task that finished in an error state.
type ExecutionError struct {
	Solver string
	Detail string
	Err    error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("execution (%s): %s", e.Solver, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// RemoteError reports a network, auth, quota, or timeout failure against the
// cloud API. TaskID is preserved when a job was already submitted so a
// caller can resume polling; this layer never retries on its own.
type RemoteError struct {
	Detail string
	TaskID string
	Err    error
}

func (e *RemoteError) Error() string {
	msg := "remote: " + e.Detail
	if e.TaskID != "" {
		msg += " (task " + e.TaskID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() error { return e.Err }

// StageError wraps any per-device failure with the stage it happened in and
// the solver identity, so batch logs always name both.
type StageError struct {
	Device string
	Solver string
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("device %s [%s, stage %s]: %v", e.Device, e.Solver, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
