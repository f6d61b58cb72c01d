package review

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/deixis/tasksh/internal/channel"
	"github.com/deixis/tasksh/internal/taskwarrior"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	id1 = "a360fc44-315c-4366-b70c-ea7e7520b749"
	id2 = "8ea6c9a6-1b4f-4d8e-9b1c-3f0f3f6d2a11"
	id3 = "0c8d2f9e-7a6b-4c5d-8e9f-a0b1c2d3e4f5"
)

// fakeTasks is an in-memory stand-in for the task client.
type fakeTasks struct {
	udaType  string // "" makes _get of the UDA fail like an unknown setting
	queue    string // raw report output
	runArgs  [][]string
	configs  map[string]string
	actions  []string
	runErr   error
	descs    map[string]string
	interact [][]string
	delErr   error
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{
		configs: map[string]string{},
		descs:   map[string]string{},
	}
}

func (f *fakeTasks) Run(args []string, _ []byte) (channel.Outcome, error) {
	f.runArgs = append(f.runArgs, args)
	if f.runErr != nil {
		return channel.Outcome{}, f.runErr
	}
	return channel.Outcome{Output: []byte(f.queue)}, nil
}

func (f *fakeTasks) Get(ref string) (string, error) {
	if ref == "rc.uda.reviewed.type" {
		if f.udaType == "" {
			return "", &taskwarrior.StatusError{Args: []string{"_get", ref}, Status: 1}
		}
		return f.udaType, nil
	}
	if d, ok := f.descs[strings.TrimSuffix(ref, ".description")]; ok {
		return d, nil
	}
	return "", &taskwarrior.StatusError{Args: []string{"_get", ref}, Status: 1}
}

func (f *fakeTasks) SetConfig(name, value string) error {
	f.configs[name] = value
	return nil
}

func (f *fakeTasks) Modify(id string, mods ...string) error {
	f.actions = append(f.actions, "modify "+id+" "+strings.Join(mods, " "))
	return nil
}

func (f *fakeTasks) Done(id string) error {
	f.actions = append(f.actions, "done "+id)
	return nil
}

func (f *fakeTasks) Delete(id string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.actions = append(f.actions, "delete "+id)
	return nil
}

func (f *fakeTasks) Interactive(args ...string) (int, error) {
	f.interact = append(f.interact, args)
	return 0, nil
}

func newTestSession(tasks Tasks, input string, out *bytes.Buffer) *Session {
	return NewSession(slog.New(slog.DiscardHandler), tasks, strings.NewReader(input), out, 0, "1week")
}

func TestEnsureUDA_ConfiguresWhenMissing(t *testing.T) {
	f := newFakeTasks()
	s := newTestSession(f, "", &bytes.Buffer{})

	require.NoError(t, s.EnsureUDA())
	assert.Equal(t, map[string]string{
		"uda.reviewed.type":  "date",
		"uda.reviewed.label": "Reviewed",
		"review.period":      "1week",
	}, f.configs)
}

func TestEnsureUDA_AlreadyConfigured(t *testing.T) {
	f := newFakeTasks()
	f.udaType = "date"
	s := newTestSession(f, "", &bytes.Buffer{})

	require.NoError(t, s.EnsureUDA())
	assert.Empty(t, f.configs)
}

func TestQueue_ParsesUUIDs(t *testing.T) {
	f := newFakeTasks()
	f.queue = id1 + "\n\nnot-a-uuid\n  " + id2 + "  \n"
	s := newTestSession(f, "", &bytes.Buffer{})

	ids, err := s.Queue([]string{"project:home"})
	require.NoError(t, err)
	assert.Equal(t, []string{id1, id2}, ids)

	require.Len(t, f.runArgs, 1)
	args := f.runArgs[0]
	assert.Equal(t, "review_temp", args[len(args)-1])
	assert.Contains(t, args, "rc.report.review_temp.columns:uuid")
	assert.Contains(t, strings.Join(args, " "), "( project:home )")
	assert.Contains(t, strings.Join(args, " "), "reviewed.before:now-1week")
}

func TestQueue_PropagatesChannelError(t *testing.T) {
	f := newFakeTasks()
	f.runErr = errors.New("spawning task: start: not found")
	s := newTestSession(f, "", &bytes.Buffer{})

	_, err := s.Queue(nil)
	require.Error(t, err)
}

func TestRun_NothingToReview(t *testing.T) {
	f := newFakeTasks()
	f.udaType = "date"
	var out bytes.Buffer
	s := newTestSession(f, "", &out)

	sum, err := s.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Contains(t, out.String(), "There are no tasks needing review.")
}

func TestRun_Responses(t *testing.T) {
	f := newFakeTasks()
	f.udaType = "date"
	f.queue = strings.Join([]string{id1, id2, id3}, "\n") + "\n"
	f.descs[id1] = "Buy milk"

	var out bytes.Buffer
	// Unknown command re-prompts, then: review, skip, complete.
	s := newTestSession(f, "x\nr\n\nc\n", &out)

	sum, err := s.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Reviewed: 2, Total: 3}, sum)
	assert.Equal(t, []string{"modify " + id1 + " reviewed:now", "done " + id3}, f.actions)

	text := out.String()
	assert.Contains(t, text, "Command 'x' is not recognized.")
	assert.Contains(t, text, "[1 of 3]")
	assert.Contains(t, text, "Buy milk")
	assert.Contains(t, text, "Marked as reviewed.")
	assert.Contains(t, text, "Skipped")
	assert.Contains(t, text, "Completed.")
	assert.Contains(t, text, "End of review. 2 out of 3 tasks reviewed.")
}

func TestRun_EditAndDelete(t *testing.T) {
	f := newFakeTasks()
	f.udaType = "date"
	f.queue = id1 + "\n" + id2 + "\n"

	var out bytes.Buffer
	s := newTestSession(f, "e\nd\n", &out)

	sum, err := s.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Reviewed)
	assert.Equal(t, []string{"modify " + id1 + " reviewed:now", "delete " + id2}, f.actions)
	assert.Contains(t, f.interact, []string{"rc.confirmation:no", "rc.verbose:nothing", id1, "edit"})
	assert.Contains(t, f.interact, []string{id1, "information"})
}

func TestRun_FailedCommandMovesOn(t *testing.T) {
	f := newFakeTasks()
	f.udaType = "date"
	f.queue = id1 + "\n" + id2 + "\n"
	f.delErr = &taskwarrior.StatusError{
		Args:   []string{id1, "delete"},
		Status: 1,
		Output: "Deletion of recurring task aborted.\n",
	}

	var out bytes.Buffer
	s := newTestSession(f, "d\nr\n", &out)

	sum, err := s.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Reviewed: 1, Total: 2}, sum)
	assert.Equal(t, []string{"modify " + id2 + " reviewed:now"}, f.actions)

	text := out.String()
	assert.Contains(t, text, "exit status 1")
	assert.Contains(t, text, "Deletion of recurring task aborted.")
	assert.Contains(t, text, "[2 of 2]")
	assert.Contains(t, text, "End of review. 1 out of 2 tasks reviewed.")
}

func TestRun_ChannelErrorEndsReview(t *testing.T) {
	f := newFakeTasks()
	f.udaType = "date"
	f.queue = id1 + "\n" + id2 + "\n"
	f.delErr = errors.New("executing task: spawning task: start: not found")

	var out bytes.Buffer
	s := newTestSession(f, "d\nr\n", &out)

	_, err := s.Run(nil)
	require.Error(t, err)
	assert.Empty(t, f.actions)
	assert.NotContains(t, out.String(), "[2 of 2]")
}

func TestRun_QuitAndEOF(t *testing.T) {
	for _, input := range []string{"q\n", ""} {
		f := newFakeTasks()
		f.udaType = "date"
		f.queue = id1 + "\n" + id2 + "\n"

		var out bytes.Buffer
		s := newTestSession(f, input, &out)

		sum, err := s.Run(nil)
		require.NoError(t, err)
		assert.Equal(t, Summary{Reviewed: 0, Total: 2}, sum, "input %q", input)
		assert.Empty(t, f.actions)
		assert.Contains(t, out.String(), "End of review. 0 out of 2 tasks reviewed.")
	}
}

func TestBanner_Width(t *testing.T) {
	got := banner(2, 10, 30, "short")
	assert.Contains(t, got, "[2 of 10]")
	assert.Contains(t, got, "short")

	long := banner(1, 1, 20, "a description that is far too long to fit")
	assert.Contains(t, long, "...")
	assert.NotContains(t, long, "to fit")

	assert.Contains(t, banner(1, 1, 0, "no width"), " no width")
}

func TestWelcome_Wraps(t *testing.T) {
	text := welcome(40)
	for _, line := range strings.Split(text, "\n") {
		assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 40, "line %q", line)
	}
	assert.Contains(t, welcome(0), "man tasksh")
}
