package config

import "fmt"

// Error reports a malformed or incomplete configuration. Config errors are
// fatal for the whole invocation; no partial batch is attempted.
type Error struct {
	Path   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Detail, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }
