//go:build !unix

package channel

import "errors"

// Run performs the invocation. See Invoke.
func (inv Invocation) Run() (Outcome, error) {
	return Outcome{}, &SpawnError{Executable: inv.Executable, Op: "start", Err: errors.ErrUnsupported}
}
