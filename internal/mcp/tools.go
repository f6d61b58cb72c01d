package mcp

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/deixis/tasksh"
	"github.com/deixis/tasksh/internal/diag"
	"github.com/deixis/tasksh/internal/review"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	Args  []string `json:"args" jsonschema:"Arguments for task, e.g. [\"project:home\", \"list\"] or [\"add\", \"Buy milk\", \"+errand\"]."`
	Input string   `json:"input,omitempty" jsonschema:"Text written to task's standard input."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	out, err := h.tasks.Run(params.Args, []byte(params.Input))
	if err != nil {
		return errorResult(fmt.Sprintf("task failed to run: %v", err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Exit status: %d\n", out.Status)
	if out.Abandoned > 0 {
		fmt.Fprintf(&b, "Input not read: %d bytes\n", out.Abandoned)
	}
	fmt.Fprintln(&b)
	b.Write(out.Output)

	return textResult(b.String())
}

type reviewQueueParams struct {
	Filter []string `json:"filter,omitempty" jsonschema:"Extra Taskwarrior filter terms, e.g. [\"project:home\"]."`
}

func (h *handler) reviewQueueHandler(ctx context.Context, req *mcp.CallToolRequest, params reviewQueueParams) (*mcp.CallToolResult, any, error) {
	s := review.NewSession(h.log, h.tasks, strings.NewReader(""), io.Discard, 0, h.cfg.ReviewPeriod())
	if err := s.EnsureUDA(); err != nil {
		return errorResult(fmt.Sprintf("configuring review: %v", err))
	}

	filter := append(append([]string(nil), h.cfg.Review.Filter...), params.Filter...)
	ids, err := s.Queue(filter)
	if err != nil {
		return errorResult(fmt.Sprintf("listing review queue: %v", err))
	}

	if len(ids) == 0 {
		return textResult("There are no tasks needing review.\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d tasks need review:\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, "%s\n", id)
	}
	return textResult(b.String())
}

type diagnosticsParams struct{}

func (h *handler) diagnosticsHandler(ctx context.Context, req *mcp.CallToolRequest, _ diagnosticsParams) (*mcp.CallToolResult, any, error) {
	r, err := diag.Collect(ctx, tasksh.Version, h.tasks, h.getenv)
	if err != nil {
		return errorResult(fmt.Sprintf("diagnostics failed: %v", err))
	}

	var b strings.Builder
	if _, err := r.WriteTo(&b); err != nil {
		return errorResult(fmt.Sprintf("diagnostics failed: %v", err))
	}
	return textResult(b.String())
}
