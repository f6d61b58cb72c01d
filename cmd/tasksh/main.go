// Command tasksh is an interactive shell for Taskwarrior.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/deixis/tasksh"
	"github.com/deixis/tasksh/internal/config"
	"github.com/deixis/tasksh/internal/diag"
	taskmcp "github.com/deixis/tasksh/internal/mcp"
	"github.com/deixis/tasksh/internal/review"
	"github.com/deixis/tasksh/internal/shell"
	"github.com/deixis/tasksh/internal/taskwarrior"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// defaultWidth is used when stdout is not a terminal.
const defaultWidth = 80

func main() {
	log.SetFlags(0)
	log.SetPrefix("tasksh: ")

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	debug      bool

	cfg    *config.Config
	log    *slog.Logger
	tasks  *taskwarrior.Client
	in     *bufio.Reader
	out    io.Writer
	width  int
	isTerm bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tasksh",
		Short:         "Interactive shell for Taskwarrior",
		Version:       tasksh.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.repl()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("TASKSH_CONFIG"), "configuration file (default: nearest .tasksh)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log at debug level")

	root.AddCommand(newReviewCmd(a), newDiagnosticsCmd(a), newMCPCmd(a))
	return root
}

func newReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review [filter...]",
		Short: "Review pending tasks, oldest review first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.review(args)
		},
	}
}

func newDiagnosticsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Print build and Taskwarrior environment details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.diagnostics(cmd.Context(), a.out)
		},
	}
}

func newMCPCmd(a *app) *cobra.Command {
	var (
		instructions bool
		httpAddr     string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if instructions {
				fmt.Fprint(a.out, taskmcp.Instructions)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			server := taskmcp.NewServer(a.log, a.cfg, a.tasks)
			if httpAddr != "" {
				return serveHTTP(ctx, server, httpAddr)
			}
			return server.Run(ctx, &mcpsdk.StdioTransport{})
		},
	}
	cmd.Flags().BoolVar(&instructions, "instructions", false, "print model instructions and exit")
	cmd.Flags().StringVar(&httpAddr, "http", "", "start HTTP server on address (e.g. :9090)")
	return cmd
}

// setup loads configuration and builds the logger, terminal settings and
// task client.
func (a *app) setup() error {
	loaded, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = loaded.Config

	level := a.cfg.LogLevel()
	if a.debug {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if loaded.Path != "" {
		a.log.Debug("loaded config", "path", loaded.Path)
	}

	if !a.cfg.Color() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	a.in = bufio.NewReader(os.Stdin)
	a.out = os.Stdout
	a.isTerm = term.IsTerminal(int(os.Stdin.Fd()))
	a.width = defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		a.width = w
	}

	a.tasks = taskwarrior.New(a.log, a.cfg.Binary())
	return nil
}

func (a *app) loadConfig() (*config.LoadResult, error) {
	if a.configPath != "" {
		return config.LoadFile(a.configPath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	home, _ := os.UserHomeDir()
	return config.Load(cwd, home)
}

func (a *app) repl() error {
	sh := shell.New(a.log, a.tasks, shell.Handlers{
		Review: a.review,
		Diagnostics: func(w io.Writer) error {
			return a.diagnostics(context.Background(), w)
		},
	}, a.in, a.out)
	sh.PromptText = a.cfg.Prompt()
	sh.Interactive = a.isTerm
	return sh.Run()
}

func (a *app) review(filter []string) error {
	s := review.NewSession(a.log, a.tasks, a.in, a.out, a.width, a.cfg.ReviewPeriod())
	all := append(append([]string(nil), a.cfg.Review.Filter...), filter...)
	_, err := s.Run(all)
	return err
}

func (a *app) diagnostics(ctx context.Context, w io.Writer) error {
	r, err := diag.Collect(ctx, tasksh.Version, a.tasks, os.Getenv)
	if err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}
	_, err = r.WriteTo(w)
	return err
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
