// Package review walks the user through the tasks that have not been
// reviewed recently, one at a time.
package review

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/deixis/tasksh/internal/channel"
	"github.com/deixis/tasksh/internal/taskwarrior"
	"github.com/google/uuid"
)

// Tasks is the subset of the task client used by a review.
// Implemented by taskwarrior.Client.
type Tasks interface {
	Run(args []string, input []byte) (channel.Outcome, error)
	Get(ref string) (string, error)
	SetConfig(name, value string) error
	Modify(uuid string, mods ...string) error
	Done(uuid string) error
	Delete(uuid string) error
	Interactive(args ...string) (int, error)
}

// Summary is the result of a review session.
type Summary struct {
	Reviewed int
	Total    int
}

// Session holds what a review needs to talk to the user and to task.
type Session struct {
	Tasks  Tasks
	In     *bufio.Reader
	Out    io.Writer
	Width  int    // terminal width; 0 disables wrapping and padding
	Period string // e.g. "1week"

	log *slog.Logger
}

// NewSession creates a review session reading responses from in.
func NewSession(log *slog.Logger, tasks Tasks, in io.Reader, out io.Writer, width int, period string) *Session {
	return &Session{
		Tasks:  tasks,
		In:     bufio.NewReader(in),
		Out:    out,
		Width:  width,
		Period: period,
		log:    log.With("component", "review"),
	}
}

// EnsureUDA defines the "reviewed" date attribute and the review period,
// unless task already knows about them.
func (s *Session) EnsureUDA() error {
	typ, err := s.Tasks.Get("rc.uda.reviewed.type")
	var statusErr *taskwarrior.StatusError
	if err != nil && !errors.As(err, &statusErr) {
		return err
	}
	if err == nil && typ == "date" {
		return nil
	}

	s.log.Info("configuring reviewed UDA", "period", s.Period)
	settings := [][2]string{
		{"uda.reviewed.type", "date"},
		{"uda.reviewed.label", "Reviewed"},
		{"review.period", s.Period},
	}
	for _, kv := range settings {
		if err := s.Tasks.SetConfig(kv[0], kv[1]); err != nil {
			return fmt.Errorf("configuring %s: %w", kv[0], err)
		}
	}
	return nil
}

// Queue returns the UUIDs of pending or waiting tasks that were never
// reviewed or were last reviewed before the review period, oldest first.
// filter narrows the list further.
func (s *Session) Queue(filter []string) ([]string, error) {
	args := []string{
		"rc.report.review_temp.columns:uuid",
		"rc.report.review_temp.sort:reviewed+",
		"rc.report.review_temp.filter:( reviewed.none: or reviewed.before:now-" + s.Period + " ) and ( +PENDING or +WAITING )",
		"rc.verbose:nothing",
	}
	if len(filter) > 0 {
		args = append(args, "(")
		args = append(args, filter...)
		args = append(args, ")")
	}
	args = append(args, "review_temp")

	out, err := s.Tasks.Run(args, nil)
	if err != nil {
		return nil, err
	}
	// task exits non-zero when nothing matches; the list is simply empty.
	if out.Status != 0 {
		s.log.Debug("review report returned non-zero", "status", out.Status)
	}
	return parseUUIDs(s.log, out.Output), nil
}

func parseUUIDs(log *slog.Logger, data []byte) []string {
	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, err := uuid.Parse(line)
		if err != nil {
			log.Debug("skipping non-uuid line", "line", line)
			continue
		}
		ids = append(ids, id.String())
	}
	return ids
}

// Run configures task if needed, then reviews every queued task until the
// list is exhausted or the user quits.
func (s *Session) Run(filter []string) (Summary, error) {
	if err := s.EnsureUDA(); err != nil {
		return Summary{}, err
	}
	ids, err := s.Queue(filter)
	if err != nil {
		return Summary{}, err
	}
	return s.loop(ids)
}

func (s *Session) loop(ids []string) (Summary, error) {
	sum := Summary{Total: len(ids)}
	if sum.Total == 0 {
		fmt.Fprint(s.Out, "\nThere are no tasks needing review.\n\n")
		return sum, nil
	}

	fmt.Fprint(s.Out, welcome(s.Width))

	current := 0
loop:
	for current < sum.Total {
		id := ids[current]

		desc, err := s.Tasks.Get(id + ".description")
		var statusErr *taskwarrior.StatusError
		if err != nil && !errors.As(err, &statusErr) {
			return sum, err
		}
		fmt.Fprint(s.Out, banner(current+1, sum.Total, s.Width, desc))

		if _, err := s.Tasks.Interactive(id, "information"); err != nil {
			return sum, err
		}

		response, ok := s.prompt()
		if !ok {
			break
		}

		var (
			actErr error
			done   string
		)
		switch response {
		case "e":
			if _, err := s.Tasks.Interactive("rc.confirmation:no", "rc.verbose:nothing", id, "edit"); err != nil {
				return sum, err
			}
			actErr, done = s.Tasks.Modify(id, "reviewed:now"), "Modified."
		case "r":
			actErr, done = s.Tasks.Modify(id, "reviewed:now"), "Marked as reviewed."
		case "c":
			actErr, done = s.Tasks.Done(id), "Completed."
		case "d":
			actErr, done = s.Tasks.Delete(id), "Deleted."
		case "q":
			break loop
		case "":
			fmt.Fprint(s.Out, "Skipped\n\n")
			current++
			continue
		default:
			fmt.Fprintf(s.Out, "Command '%s' is not recognized.\n", response)
			continue
		}
		current++

		// A task command that ran but failed leaves this task unreviewed;
		// the review carries on with the next one.
		if actErr != nil {
			if !errors.As(actErr, &statusErr) {
				return sum, actErr
			}
			s.log.Debug("task command failed", "uuid", id, "status", statusErr.Status)
			fmt.Fprintf(s.Out, "%v\n\n", statusErr)
			continue
		}
		fmt.Fprintf(s.Out, "%s\n\n", done)
		sum.Reviewed++
	}

	fmt.Fprintf(s.Out, "\nEnd of review. %d out of %d tasks reviewed.\n\n", sum.Reviewed, sum.Total)
	return sum, nil
}

// prompt shows the menu and reads one response. It reports false at end of
// input.
func (s *Session) prompt() (string, bool) {
	fmt.Fprint(s.Out, menu())
	line, err := s.In.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}
