// Package mcp provides the tasksh MCP server, registering its tools and
// publishing model instructions.
package mcp

import (
	_ "embed"
	"log/slog"
	"os"

	"github.com/deixis/tasksh"
	"github.com/deixis/tasksh/internal/config"
	"github.com/deixis/tasksh/internal/taskwarrior"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg    *config.Config
	tasks  *taskwarrior.Client
	getenv func(string) string
	log    *slog.Logger
}

// NewServer creates an MCP server with all tasksh tools registered.
func NewServer(log *slog.Logger, cfg *config.Config, tasks *taskwarrior.Client, opts ...ServerOption) *mcp.Server {
	so := serverOptions{getenv: os.Getenv}
	for _, o := range opts {
		o(&so)
	}

	h := &handler{
		cfg:    cfg,
		tasks:  tasks,
		getenv: so.getenv,
		log:    log.With("component", "mcp"),
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "tasksh", Version: tasksh.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "task_run",
		Description: `Run a Taskwarrior command and return its exit status and output.

Arguments are passed to task verbatim. The optional input is written to task's standard input.
A non-zero exit status is part of the result, not an error.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "task_review_queue",
		Description: "List the UUIDs of pending or waiting tasks that are due for review, oldest review first.",
	}, h.reviewQueueHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "tasksh_diagnostics",
		Description: "Report the tasksh build, Taskwarrior environment variables, and every task binary on PATH with its version.",
	}, h.diagnosticsHandler)

	return s
}

// ServerOption configures the tasksh MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	getenv func(string) string
}

// WithGetenv replaces the environment lookup used for diagnostics.
func WithGetenv(fn func(string) string) ServerOption {
	return func(o *serverOptions) {
		o.getenv = fn
	}
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
