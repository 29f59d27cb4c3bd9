package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

func optionValues(opts []pricing.Option) []string {
	values := make([]string, len(opts))
	for i, o := range opts {
		values[i] = o.Value
	}
	return values
}

// estimatePriceTool defines the estimate_diamond_price MCP tool.
var estimatePriceTool = mcp.NewTool("estimate_diamond_price",
	mcp.WithDescription("Estimate the price of a diamond from its weight, cut, color, clarity, polish, symmetry and grading laboratory. Every attribute is required."),
	mcp.WithNumber(string(pricing.FieldCaratWeight),
		mcp.Required(),
		mcp.Description("Weight in carats"),
		mcp.Min(pricing.MinCaratWeight),
		mcp.Max(pricing.MaxCaratWeight),
	),
	mcp.WithString(string(pricing.FieldCut),
		mcp.Required(),
		mcp.Description("Cut grade"),
		mcp.Enum(optionValues(pricing.CutOptions)...),
	),
	mcp.WithString(string(pricing.FieldColor),
		mcp.Required(),
		mcp.Description("Color grade, D is the most colorless"),
		mcp.Enum(optionValues(pricing.ColorOptions)...),
	),
	mcp.WithString(string(pricing.FieldClarity),
		mcp.Required(),
		mcp.Description("Clarity grade"),
		mcp.Enum(optionValues(pricing.ClarityOptions)...),
	),
	mcp.WithString(string(pricing.FieldPolish),
		mcp.Required(),
		mcp.Description("Polish grade"),
		mcp.Enum(optionValues(pricing.PolishOptions)...),
	),
	mcp.WithString(string(pricing.FieldSymmetry),
		mcp.Required(),
		mcp.Description("Symmetry grade"),
		mcp.Enum(optionValues(pricing.SymmetryOptions)...),
	),
	mcp.WithString(string(pricing.FieldReport),
		mcp.Required(),
		mcp.Description("Laboratory that graded the diamond"),
		mcp.Enum(optionValues(pricing.ReportOptions)...),
	),
)

// listOptionsTool defines the list_diamond_options MCP tool.
var listOptionsTool = mcp.NewTool("list_diamond_options",
	mcp.WithDescription("List the accepted values, with descriptions, for every diamond attribute."),
)

// recentActivityTool defines the recent_activity MCP tool.
var recentActivityTool = mcp.NewTool("recent_activity",
	mcp.WithDescription("List recent estimates and chat turns from the usage ledger, newest first."),
	mcp.WithString("action",
		mcp.Description("Only return entries with this action"),
		mcp.Enum(
			string(audit.ActionPredictionMade),
			string(audit.ActionPredictionRejected),
			string(audit.ActionPredictionFailed),
			string(audit.ActionSessionStarted),
			string(audit.ActionTurnAnswered),
			string(audit.ActionTurnBlocked),
			string(audit.ActionSessionEnded),
		),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 20)"),
	),
)
