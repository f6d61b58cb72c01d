// Package diag gathers the environment details that matter when tasksh or
// task misbehave.
package diag

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/deixis/tasksh/internal/taskwarrior"
	"golang.org/x/sync/errgroup"
)

// Binary is one task executable found on PATH.
type Binary struct {
	Path    string
	Version string
	Err     error
}

// Report is a snapshot of the build and runtime environment.
type Report struct {
	Version   string
	Platform  string
	GoVersion string
	Revision  string
	BuildTime string
	Modified  bool

	TaskRC   string
	TaskData string
	Path     string
	Binaries []Binary
}

// Collect builds a Report. Every task executable on PATH is asked for its
// version, each through its own invocation.
func Collect(ctx context.Context, version string, tasks *taskwarrior.Client, getenv func(string) string) (*Report, error) {
	r := &Report{
		Version:   version,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
		TaskRC:    getenv("TASKRC"),
		TaskData:  getenv("TASKDATA"),
		Path:      getenv("PATH"),
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				r.Revision = s.Value
			case "vcs.time":
				r.BuildTime = s.Value
			case "vcs.modified":
				r.Modified = s.Value == "true"
			}
		}
	}

	paths := findExecutables(r.Path, filepath.Base(tasks.Binary))
	r.Binaries = make([]Binary, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := tasks.WithBinary(p).Version()
			r.Binaries[i] = Binary{Path: p, Version: v, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("probing task binaries: %w", err)
	}
	return r, nil
}

// findExecutables lists every regular, executable file called name in the
// PATH-style list dirs, in order, without duplicates.
func findExecutables(dirs, name string) []string {
	seen := make(map[string]bool)
	var found []string
	for _, dir := range filepath.SplitList(dirs) {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true

		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
			continue
		}
		found = append(found, p)
	}
	return found
}

var bold = lipgloss.NewStyle().Bold(true)

// WriteTo prints the report in the layout of "task diagnostics".
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", bold.Render("tasksh "+r.Version))
	fmt.Fprintf(&b, "   Platform: %s\n\n", r.Platform)

	fmt.Fprintf(&b, "%s\n", bold.Render("Build"))
	fmt.Fprintf(&b, "         Go: %s\n", r.GoVersion)
	if r.Revision != "" {
		rev := r.Revision
		if r.Modified {
			rev += " (modified)"
		}
		fmt.Fprintf(&b, "     Commit: %s\n", rev)
	}
	if r.BuildTime != "" {
		fmt.Fprintf(&b, "      Built: %s\n", r.BuildTime)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "%s\n", bold.Render("Configuration"))
	fmt.Fprintf(&b, "     TASKRC: %s\n", r.TaskRC)
	fmt.Fprintf(&b, "   TASKDATA: %s\n", r.TaskData)
	fmt.Fprintf(&b, "       PATH: %s\n", r.Path)
	for _, bin := range r.Binaries {
		if bin.Err != nil {
			fmt.Fprintf(&b, "Taskwarrior: %s (%v)\n", bin.Path, bin.Err)
			continue
		}
		fmt.Fprintf(&b, "Taskwarrior: %s %s\n", bin.Path, bin.Version)
	}
	if len(r.Binaries) == 0 {
		fmt.Fprintln(&b, "Taskwarrior: not found on PATH")
	}
	fmt.Fprintln(&b)

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
