package mcp

import "github.com/mark3labs/mcp-go/mcp"

var matchErrorTool = mcp.NewTool("match_error",
	mcp.WithDescription("Match a free-text boot or hardware error description against the loaded troubleshooting dataset. Returns ranked fixes, a clarifying question when the description is ambiguous, or suggestions when nothing matches."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("The error message or symptom as the user reported it"),
	),
	mcp.WithString("context",
		mcp.Description("Optional extra context (machine model, what changed) kept with unmatched queries"),
	),
)

var loadDatasetTool = mcp.NewTool("load_dataset",
	mcp.WithDescription("Load a CSV or XLSX troubleshooting dataset, replacing the current one. The first column holds error messages; the rest hold fixes and an optional priority."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("File path or glob (** allowed); matching files must share one header row"),
	),
)

var datasetInfoTool = mcp.NewTool("dataset_info",
	mcp.WithDescription("Describe the loaded dataset: source, columns and row count."),
)

var listUnmatchedTool = mcp.NewTool("list_unmatched",
	mcp.WithDescription("List recent queries that matched nothing, newest last. Useful for finding gaps in the dataset."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 20)"),
	),
)
