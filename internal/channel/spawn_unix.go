//go:build unix

package channel

import (
	"bytes"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// session is the live state of one invocation. It is owned by a single Run
// call and never reused.
type session struct {
	exe string
	cmd *exec.Cmd

	stdin  int // caller's write end of the child's stdin, -1 once closed
	stdout int // caller's read end of the child's stdout, -1 once closed

	input     []byte
	written   int
	abandoned int
	output    bytes.Buffer
}

// pipe returns a close-on-exec pipe as (read, write). ForkLock keeps a
// concurrent fork from inheriting the fds before CLOEXEC is set.
func pipe() (r, w int, err error) {
	var p [2]int
	syscall.ForkLock.RLock()
	err = unix.Pipe(p[:])
	if err == nil {
		unix.CloseOnExec(p[0])
		unix.CloseOnExec(p[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return -1, -1, err
	}
	return p[0], p[1], nil
}

// spawn starts the child with its stdin and stdout wired to fresh pipes.
// On failure every fd opened here is closed again.
func spawn(inv Invocation) (*session, error) {
	inR, inW, err := pipe()
	if err != nil {
		return nil, &SpawnError{Executable: inv.Executable, Op: "pipe", Err: err}
	}
	outR, outW, err := pipe()
	if err != nil {
		closeAll(inR, inW)
		return nil, &SpawnError{Executable: inv.Executable, Op: "pipe", Err: err}
	}

	// Only the caller's ends go non-blocking; the child expects blocking
	// stdio.
	for _, fd := range []int{inW, outR} {
		if err := unix.SetNonblock(fd, true); err != nil {
			closeAll(inR, inW, outR, outW)
			return nil, &SpawnError{Executable: inv.Executable, Op: "setnonblock", Err: err}
		}
	}

	childIn := os.NewFile(uintptr(inR), "|0")
	childOut := os.NewFile(uintptr(outW), "|1")

	//nolint:gosec // G204: running caller-supplied commands is the point
	cmd := exec.Command(inv.Executable, inv.Args...)
	cmd.Stdin = childIn
	cmd.Stdout = childOut
	cmd.Stderr = os.Stderr

	startErr := cmd.Start()

	// The child holds its own copies now. Dropping ours is what lets each
	// side see end-of-stream when the other is done.
	_ = childIn.Close()
	_ = childOut.Close()

	if startErr != nil {
		closeAll(inW, outR)
		return nil, &SpawnError{Executable: inv.Executable, Op: "start", Err: startErr}
	}

	return &session{
		exe:    inv.Executable,
		cmd:    cmd,
		stdin:  inW,
		stdout: outR,
		input:  inv.Input,
	}, nil
}

func closeAll(fds ...int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}

func (s *session) closeStdin() {
	if s.stdin >= 0 {
		_ = unix.Close(s.stdin)
		s.stdin = -1
	}
}

func (s *session) closeStdout() {
	if s.stdout >= 0 {
		_ = unix.Close(s.stdout)
		s.stdout = -1
	}
}

// release closes whatever pipe ends the caller still holds. Safe to call
// more than once.
func (s *session) release() {
	s.closeStdin()
	s.closeStdout()
}

// abort tears the session down after a failed exchange: the pipes are
// closed and the child is killed and reaped so nothing is left behind.
func (s *session) abort() {
	s.release()
	if s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	s.output.Reset()
}
