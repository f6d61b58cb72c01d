//go:build unix

package channel

import (
	"errors"
	"os/exec"
	"syscall"
)

// wait blocks until the child has terminated and returns its exit code.
// A child killed by a signal has no exit code and is reported as an error.
func (s *session) wait() (int, error) {
	err := s.cmd.Wait()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return 0, &ExitCollectionError{Executable: s.exe, Err: err}
	}

	state := s.cmd.ProcessState
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 0, &ExitCollectionError{Executable: s.exe, Signal: ws.Signal(), Err: err}
	}
	if !state.Exited() {
		return 0, &ExitCollectionError{Executable: s.exe, Err: errors.New("process did not exit normally")}
	}
	return state.ExitCode(), nil
}
