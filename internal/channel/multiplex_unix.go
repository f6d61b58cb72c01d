//go:build unix

package channel

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// chunkSize bounds a single read from the child's stdout.
	chunkSize = 16 << 10

	// pollInterval keeps each readiness wait finite. It re-arms every
	// iteration and is not a timeout for the call.
	pollInterval = 5 * time.Second
)

// exchange writes the input and drains the output until the child has
// closed its stdout and every input byte is either written or abandoned.
// It never blocks on one direction while the other still has work.
func (s *session) exchange() error {
	if len(s.input) == 0 {
		s.closeStdin()
	}

	buf := make([]byte, chunkSize)
	timeout := int(pollInterval / time.Millisecond)

	for s.stdout >= 0 || s.stdin >= 0 {
		// Closed ends are -1, which poll skips.
		fds := []unix.PollFd{
			{Fd: int32(s.stdout), Events: unix.POLLIN},
			{Fd: int32(s.stdin), Events: unix.POLLOUT},
		}

		n, err := unix.Poll(fds, timeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return &IoError{Executable: s.exe, Op: "poll", Err: err}
		}
		if n == 0 {
			continue
		}

		// POLLERR/POLLHUP on the write end means the reader is gone; the
		// write below turns that into EPIPE.
		if fds[1].Revents != 0 {
			if err := s.write(); err != nil {
				return err
			}
		}
		if fds[0].Revents != 0 {
			if err := s.read(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// write sends as much of the remaining input as the pipe accepts.
func (s *session) write() error {
	n, err := unix.Write(s.stdin, s.input[s.written:])
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return nil
	case errors.Is(err, unix.EPIPE):
		// The child stopped reading. Not the caller's fault.
		s.abandoned = len(s.input) - s.written
		s.written = len(s.input)
	case err != nil:
		return &IoError{Executable: s.exe, Op: "write", Err: err}
	default:
		s.written += n
	}

	if s.written == len(s.input) {
		s.closeStdin()
	}
	return nil
}

// read appends one chunk of output. A zero-byte read ends the read side.
func (s *session) read(buf []byte) error {
	n, err := unix.Read(s.stdout, buf)
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return nil
	case err != nil:
		return &IoError{Executable: s.exe, Op: "read", Err: err}
	case n == 0:
		s.closeStdout()
	default:
		s.output.Write(buf[:n])
	}
	return nil
}
