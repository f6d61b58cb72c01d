// Package shell implements the interactive tasksh prompt. Anything that is
// not a shell command is handed to task.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Usage is printed when an interactive session starts.
const Usage = `  Commands:
    tasksh> review           Task review session
    tasksh> list             Or any other Taskwarrior command
    tasksh> diagnostics      Tasksh diagnostics
    tasksh> help             Tasksh help
    tasksh> exec ls -al      Any shell command.  May also use '!ls -al'
    tasksh> quit             End of session. May also use 'exit'
`

// Help is printed by the help command.
const Help = "Run 'man tasksh' from your shell prompt.\nRun '! man tasksh' from inside tasksh.\n"

// minAbbreviation is the shortest accepted abbreviation of a shell command.
const minAbbreviation = 3

// Runner executes pass-through command lines. Implemented by
// taskwarrior.Client.
type Runner interface {
	// Shell runs line through sh -c; the task binary is "$0".
	Shell(line string) (int, error)
}

// Handlers are the commands implemented outside this package.
type Handlers struct {
	Review      func(filter []string) error
	Diagnostics func(w io.Writer) error
}

// Shell is one interactive session.
type Shell struct {
	Tasks       Runner
	Handlers    Handlers
	Contexts    *Contexts
	PromptText  string
	Interactive bool // print usage and prompts

	in  *bufio.Reader
	out io.Writer
	log *slog.Logger
}

// New creates a Shell reading command lines from in.
func New(log *slog.Logger, tasks Runner, h Handlers, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		Tasks:      tasks,
		Handlers:   h,
		Contexts:   &Contexts{},
		PromptText: "task",
		in:         bufio.NewReader(in),
		out:        out,
		log:        log.With("component", "shell"),
	}
}

// Run reads and dispatches command lines until quit or end of input.
// Command failures are reported and the loop continues.
func (s *Shell) Run() error {
	if s.Interactive {
		fmt.Fprintf(s.out, "\n%s\n", Usage)
	}

	for {
		if s.Interactive {
			fmt.Fprint(s.out, Prompt(s.PromptText, s.Contexts))
		}

		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				if s.Interactive {
					fmt.Fprintln(s.out)
				}
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}

		quit, dispatchErr := s.Dispatch(line)
		if dispatchErr != nil {
			fmt.Fprintf(s.out, "%v\n", dispatchErr)
		}
		if quit {
			return nil
		}
	}
}

// Dispatch runs one command line. It reports true when the session should
// end.
func (s *Shell) Dispatch(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if rest, ok := strings.CutPrefix(line, "!"); ok {
		return false, s.passThrough(strings.TrimSpace(rest))
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	s.log.Debug("dispatch", "command", name, "args", args)

	switch {
	case closeEnough("exit", name), closeEnough("quit", name):
		return true, nil
	case closeEnough("help", name):
		fmt.Fprint(s.out, Help)
		return false, nil
	case closeEnough("diagnostics", name):
		return false, s.Handlers.Diagnostics(s.out)
	case closeEnough("review", name):
		return false, s.Handlers.Review(args)
	case closeEnough("exec", name):
		return false, s.passThrough(strings.TrimSpace(strings.TrimPrefix(line, name)))
	case name == "context":
		if len(args) > 0 {
			s.Contexts.Push(args[0])
		}
		return false, nil
	case name == "leave":
		s.Contexts.Pop()
		return false, nil
	case name == "clear":
		s.Contexts.Clear()
		return false, nil
	}

	return false, s.passThrough(`"$0" ` + line)
}

// passThrough runs a command line with the terminal attached. The command's
// exit status is deliberately dropped: a failing filter or query must not
// end the session.
func (s *Shell) passThrough(line string) error {
	if line == "" {
		return nil
	}
	status, err := s.Tasks.Shell(line)
	if err != nil {
		return err
	}
	if status != 0 {
		s.log.Debug("command exited non-zero", "line", line, "status", status)
	}
	return nil
}

// closeEnough reports whether attempt names reference, either exactly or as
// an abbreviation of at least minAbbreviation characters.
func closeEnough(reference, attempt string) bool {
	if attempt == reference {
		return true
	}
	return len(attempt) >= minAbbreviation && strings.HasPrefix(reference, attempt)
}
