package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/errmatch/internal/dataset"
	"github.com/ziadkadry99/errmatch/internal/matcher"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

// handleMatchError runs one query against the loaded dataset.
func (s *Server) handleMatchError(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	ctx = unmatched.WithUserContext(ctx, request.GetString("context", ""))
	resp, err := s.engine.Match(ctx, SessionID, query)
	if err != nil {
		var me *matcher.Error
		if errors.As(err, &me) && me.Kind == matcher.KindNoDataset {
			return mcp.NewToolResultError("No dataset loaded. Call load_dataset first."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(FormatResponse(resp)), nil
}

// handleLoadDataset replaces the session dataset with the files at path.
func (s *Server) handleLoadDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	ds, err := dataset.LoadGlob(path, s.maxRows)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load dataset: %v", err)), nil
	}
	if err := s.engine.Load(SessionID, ds); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Loaded %d error records from %s.\nColumns: %s",
		ds.Len(), ds.Source, strings.Join(ds.Columns, ", "),
	)), nil
}

func (s *Server) handleDatasetInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ds, err := s.engine.Dataset(SessionID)
	if err != nil {
		return mcp.NewToolResultError("No dataset loaded. Call load_dataset first."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\n", ds.Source)
	fmt.Fprintf(&sb, "Rows: %d\n", ds.Len())
	fmt.Fprintf(&sb, "Columns: %s\n", strings.Join(ds.Columns, ", "))
	if !ds.LoadedAt.IsZero() {
		fmt.Fprintf(&sb, "Loaded: %s\n", ds.LoadedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListUnmatched(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.unmatched == nil {
		return mcp.NewToolResultText("Unmatched queries are not being recorded."), nil
	}

	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	entries := s.unmatched.Recent(limit)
	if len(entries) == 0 {
		return mcp.NewToolResultText("No unmatched queries recorded."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d unmatched quer", len(entries))
	if len(entries) == 1 {
		sb.WriteString("y:\n")
	} else {
		sb.WriteString("ies:\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&sb, "- [%s] %q (category: %s)", e.Timestamp.Format("2006-01-02 15:04"), e.ErrorMessage, e.Category)
		if e.UserContext != "" {
			fmt.Fprintf(&sb, " context: %s", e.UserContext)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// FormatResponse renders a match response as plain text for agents and
// terminals.
func FormatResponse(resp *matcher.Response) string {
	var sb strings.Builder
	sb.WriteString(resp.Message)
	sb.WriteString("\n")

	if resp.FollowUp != nil {
		sb.WriteString("\n")
		sb.WriteString(resp.FollowUp.Question)
		sb.WriteString("\n")
	}

	for i, m := range resp.Matches {
		fmt.Fprintf(&sb, "\n--- Match %d ---\n", i+1)
		fmt.Fprintf(&sb, "Error: %s\n", m.Error)
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n", m.Similarity*100)
		fmt.Fprintf(&sb, "Priority: %s\n", m.Priority)
		for _, f := range m.Fixes {
			fmt.Fprintf(&sb, "  %s: %s\n", f.Type, f.Content)
		}
	}

	if len(resp.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range resp.Suggestions {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	if resp.Template != nil {
		sb.WriteString("\nAdd it to the dataset with a row like:\n")
		sb.WriteString(resp.Template.SuggestedFormat.CSVRow)
		sb.WriteString("\n")
	}
	return sb.String()
}
