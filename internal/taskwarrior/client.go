// Package taskwarrior drives the external task program. Captured calls go
// through the subprocess channel; interactive ones share the terminal.
package taskwarrior

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/deixis/tasksh/internal/channel"
)

// quiet suppresses confirmations and chatter for non-interactive calls.
var quiet = []string{"rc.confirmation:no", "rc.verbose:nothing"}

// InvokeFunc runs one captured invocation. channel.Invoke satisfies it.
type InvokeFunc func(executable string, args []string, input []byte) (channel.Outcome, error)

// StatusError reports a non-zero exit where the caller treats it as failure.
type StatusError struct {
	Args   []string
	Status int
	Output string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("task %s: exit status %d", strings.Join(e.Args, " "), e.Status)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// Client runs task commands.
type Client struct {
	Binary string
	Invoke InvokeFunc // defaults to channel.Invoke

	// Streams shared with interactive commands. Nil means the process's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	log *slog.Logger
}

// New returns a Client for binary.
func New(log *slog.Logger, binary string) *Client {
	return &Client{
		Binary: binary,
		log:    log.With("component", "taskwarrior"),
	}
}

// WithBinary returns a copy of c that runs a different executable.
func (c *Client) WithBinary(binary string) *Client {
	cp := *c
	cp.Binary = binary
	return &cp
}

// Run executes task with args and input, capturing its output. A non-zero
// exit status is returned as data.
func (c *Client) Run(args []string, input []byte) (channel.Outcome, error) {
	invoke := c.Invoke
	if invoke == nil {
		invoke = channel.Invoke
	}

	out, err := invoke(c.Binary, args, input)
	if err != nil {
		return channel.Outcome{}, fmt.Errorf("executing %s: %w", c.Binary, err)
	}
	c.logger().Debug("task finished", "args", args, "status", out.Status, "output_len", len(out.Output))
	return out, nil
}

// Get evaluates a DOM reference such as "rc.uda.reviewed.type" or
// "<uuid>.description". The trailing newline is removed.
func (c *Client) Get(ref string) (string, error) {
	args := []string{"_get", ref}
	out, err := c.Run(args, nil)
	if err != nil {
		return "", err
	}
	if out.Status != 0 {
		return "", &StatusError{Args: args, Status: out.Status, Output: string(out.Output)}
	}
	return strings.TrimRight(string(out.Output), "\n"), nil
}

// SetConfig writes name=value to the user's taskrc.
func (c *Client) SetConfig(name, value string) error {
	return c.quiet("config", name, value)
}

// Modify applies modifications to the task identified by uuid.
func (c *Client) Modify(uuid string, mods ...string) error {
	return c.quiet(append([]string{uuid, "modify"}, mods...)...)
}

// Done marks the task identified by uuid as completed.
func (c *Client) Done(uuid string) error {
	return c.quiet(uuid, "done")
}

// Delete deletes the task identified by uuid.
func (c *Client) Delete(uuid string) error {
	return c.quiet(uuid, "delete")
}

// Version returns the output of task --version.
func (c *Client) Version() (string, error) {
	args := []string{"--version"}
	out, err := c.Run(args, nil)
	if err != nil {
		return "", err
	}
	if out.Status != 0 {
		return "", &StatusError{Args: args, Status: out.Status, Output: string(out.Output)}
	}
	return strings.TrimSpace(string(out.Output)), nil
}

func (c *Client) quiet(args ...string) error {
	full := append(append([]string(nil), quiet...), args...)
	out, err := c.Run(full, nil)
	if err != nil {
		return err
	}
	if out.Status != 0 {
		return &StatusError{Args: full, Status: out.Status, Output: string(out.Output)}
	}
	return nil
}

// Interactive runs task with the terminal attached, for commands such as
// edit or information whose output is meant for the user.
func (c *Client) Interactive(args ...string) (int, error) {
	return c.attached(c.Binary, args...)
}

// Shell runs line through sh -c with the terminal attached. The configured
// binary is available to the line as "$0".
func (c *Client) Shell(line string) (int, error) {
	return c.attached("sh", "-c", line, c.Binary)
}

func (c *Client) attached(name string, args ...string) (int, error) {
	//nolint:gosec // G204: running user commands is the point of the shell
	cmd := exec.Command(name, args...)
	cmd.Stdin = c.stdin()
	cmd.Stdout = c.stdout()
	cmd.Stderr = c.stderr()

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Binary not found or other exec error.
			return 0, fmt.Errorf("executing %s: %w", name, runErr)
		}
	}

	c.logger().Debug("interactive command finished", "name", name, "args", args, "status", exitCode)
	return exitCode, nil
}

func (c *Client) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

func (c *Client) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Client) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

func (c *Client) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return slog.New(slog.DiscardHandler)
}
