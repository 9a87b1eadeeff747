package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2beens/fitcoach/pkg"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultProgressLogs = 10

// Handler turns tool input into service calls and service output into MCP results.
type Handler struct {
	service contextService
	now     func() time.Time
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

type SchemaInput struct{}

type RangeInput struct {
	UserID   int    `json:"user_id" jsonschema:"Id of the user whose data is read"`
	FromDate string `json:"from_date" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate   string `json:"to_date" jsonschema:"End date (YYYY-MM-DD), inclusive"`
}

type WeeklyStatsInput struct {
	UserID int    `json:"user_id" jsonschema:"Id of the user whose data is read"`
	Date   string `json:"date,omitempty" jsonschema:"Last day of the week (YYYY-MM-DD), defaults to today"`
}

type ProgressLogsInput struct {
	UserID int `json:"user_id" jsonschema:"Id of the user whose data is read"`
	Limit  int `json:"limit,omitempty" jsonschema:"Max number of logs, newest first (default 10)"`
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

func parseRange(in RangeInput) (time.Time, time.Time, *mcp.CallToolResult) {
	from, err := pkg.ParseDate(in.FromDate)
	if err != nil {
		return time.Time{}, time.Time{}, errorResult("Invalid from_date: use YYYY-MM-DD")
	}
	to, err := pkg.ParseDate(in.ToDate)
	if err != nil {
		return time.Time{}, time.Time{}, errorResult("Invalid to_date: use YYYY-MM-DD")
	}
	return from, to, nil
}

func (h *Handler) SchemaTool() func(context.Context, *mcp.CallToolRequest, SchemaInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SchemaInput) (*mcp.CallToolResult, any, error) {
		text, err := h.service.Schema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

func (h *Handler) WorkoutsForRangeTool() func(context.Context, *mcp.CallToolRequest, RangeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RangeInput) (*mcp.CallToolResult, any, error) {
		from, to, res := parseRange(in)
		if res != nil {
			return res, nil, nil
		}
		list, err := h.service.WorkoutsForRange(ctx, in.UserID, from, to)
		if err != nil {
			return errorResult("Error listing workouts: " + err.Error()), nil, nil
		}
		return jsonResult(list), nil, nil
	}
}

func (h *Handler) WeeklyStatsTool() func(context.Context, *mcp.CallToolRequest, WeeklyStatsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WeeklyStatsInput) (*mcp.CallToolResult, any, error) {
		day := h.now()
		if in.Date != "" {
			d, err := pkg.ParseDate(in.Date)
			if err != nil {
				return errorResult("Invalid date: use YYYY-MM-DD"), nil, nil
			}
			day = d
		}
		stats, err := h.service.WeeklyStats(ctx, in.UserID, day)
		if err != nil {
			return errorResult("Error computing weekly stats: " + err.Error()), nil, nil
		}
		return jsonResult(stats), nil, nil
	}
}

func (h *Handler) NutritionSummaryTool() func(context.Context, *mcp.CallToolRequest, RangeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RangeInput) (*mcp.CallToolResult, any, error) {
		from, to, res := parseRange(in)
		if res != nil {
			return res, nil, nil
		}
		summaries, err := h.service.NutritionSummary(ctx, in.UserID, from, to)
		if err != nil {
			return errorResult("Error summarizing nutrition: " + err.Error()), nil, nil
		}
		return jsonResult(summaries), nil, nil
	}
}

func (h *Handler) ProgressLogsTool() func(context.Context, *mcp.CallToolRequest, ProgressLogsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ProgressLogsInput) (*mcp.CallToolResult, any, error) {
		limit := in.Limit
		if limit <= 0 {
			limit = defaultProgressLogs
		}
		list, err := h.service.ProgressLogs(ctx, in.UserID, limit)
		if err != nil {
			return errorResult("Error listing progress logs: " + err.Error()), nil, nil
		}
		return jsonResult(list), nil, nil
	}
}
