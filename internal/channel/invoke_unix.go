//go:build unix

package channel

import (
	"os"
	"os/signal"
	"syscall"
)

// Run performs the invocation. See Invoke.
func (inv Invocation) Run() (Outcome, error) {
	defer trapSIGPIPE()()

	s, err := spawn(inv)
	if err != nil {
		return Outcome{}, err
	}
	defer s.release()

	if err := s.exchange(); err != nil {
		s.abort()
		return Outcome{}, err
	}

	status, err := s.wait()
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Status:    status,
		Output:    s.output.Bytes(),
		Abandoned: s.abandoned,
	}, nil
}

// trapSIGPIPE routes SIGPIPE to a private channel until the returned func
// is called, so a child closing its stdin early cannot take the caller down.
// The child's own disposition is untouched.
func trapSIGPIPE() (restore func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGPIPE)
	return func() {
		signal.Stop(ch)
	}
}
