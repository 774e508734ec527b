package layout

import "fmt"

// Error reports bad or incomplete input geometry. It is fatal for the
// affected device run only; other devices in a batch proceed.
type Error struct {
	Device string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("layout %s: %s: %v", e.Device, e.Detail, e.Err)
	}
	return fmt.Sprintf("layout %s: %s", e.Device, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }
