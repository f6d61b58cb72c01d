package channel

import (
	"fmt"
	"os"
)

// Compile-time verification that all channel errors share one shape.
var (
	_ error = (*SpawnError)(nil)
	_ error = (*IoError)(nil)
	_ error = (*ExitCollectionError)(nil)
)

// SpawnError indicates that a pipe or the child process could not be
// created. No exchange took place.
type SpawnError struct {
	Executable string
	Op         string // "pipe", "setnonblock", "start"
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning %s: %s: %v", e.Executable, e.Op, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IoError indicates that exchanging bytes with the child failed for a reason
// other than the child closing its input early.
type IoError struct {
	Executable string
	Op         string // "poll", "read", "write"
	Err        error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("exchanging with %s: %s: %v", e.Executable, e.Op, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// ExitCollectionError indicates that the child's termination could not be
// observed, or that it was terminated by a signal and has no exit status.
type ExitCollectionError struct {
	Executable string
	Signal     os.Signal // set when the child was killed by a signal
	Err        error
}

func (e *ExitCollectionError) Error() string {
	if e.Signal != nil {
		return fmt.Sprintf("collecting exit status of %s: terminated by signal %v", e.Executable, e.Signal)
	}
	return fmt.Sprintf("collecting exit status of %s: %v", e.Executable, e.Err)
}

func (e *ExitCollectionError) Unwrap() error {
	return e.Err
}
