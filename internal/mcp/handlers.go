package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

// handleEstimatePrice validates the attributes and runs the price model.
func (s *Server) handleEstimatePrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := pricing.Request{
		Cut:      request.GetString(string(pricing.FieldCut), ""),
		Color:    request.GetString(string(pricing.FieldColor), ""),
		Clarity:  request.GetString(string(pricing.FieldClarity), ""),
		Polish:   request.GetString(string(pricing.FieldPolish), ""),
		Symmetry: request.GetString(string(pricing.FieldSymmetry), ""),
		Report:   request.GetString(string(pricing.FieldReport), ""),
	}
	if w, err := request.RequireFloat(string(pricing.FieldCaratWeight)); err == nil {
		req.CaratWeight = &w
	}

	est, err := s.estimator.Estimate(ctx, req)
	if err != nil {
		s.recorder.PredictionFailed(ctx, err)
		return mcp.NewToolResultError(fmt.Sprintf("estimate failed: %v", err)), nil
	}

	if !est.OK() {
		s.recorder.PredictionRejected(ctx, est.Warnings)
		var b strings.Builder
		for _, w := range est.Warnings {
			fmt.Fprintf(&b, "- %s\n", w.Message)
		}
		return mcp.NewToolResultError(b.String()), nil
	}

	s.recorder.PredictionMade(ctx, est.Price)
	return mcp.NewToolResultText(fmt.Sprintf("Estimated price: $%.2f", est.Price)), nil
}

// handleListOptions describes every attribute and its accepted values.
func (s *Server) handleListOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatOptions()), nil
}

// handleRecentActivity lists ledger entries.
func (s *Server) handleRecentActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	entries, err := s.ledger.Query(ctx, audit.QueryFilter{
		Action: audit.Action(request.GetString("action", "")),
		Limit:  limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	if len(entries) == 0 {
		return mcp.NewToolResultText("No activity recorded yet."), nil
	}

	return mcp.NewToolResultText(formatEntries(entries)), nil
}

func formatOptions() string {
	var b strings.Builder
	for _, spec := range pricing.FieldSpecs {
		fmt.Fprintf(&b, "## %s (`%s`)\n", spec.Label, spec.Field)
		if spec.Help != "" {
			fmt.Fprintf(&b, "%s\n", spec.Help)
		}
		if spec.Field == pricing.FieldCaratWeight {
			fmt.Fprintf(&b, "- a number from %.2f to %.2f\n", pricing.MinCaratWeight, pricing.MaxCaratWeight)
		}
		for _, o := range spec.Options {
			fmt.Fprintf(&b, "- `%s`: %s\n", o.Value, o.Label)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatEntries(entries []audit.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action)
		if e.SessionID != "" {
			fmt.Fprintf(&b, " [%s]", e.SessionID)
		}
		if e.Summary != "" {
			fmt.Fprintf(&b, ": %s", e.Summary)
		}
		if len(e.Categories) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(e.Categories, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
