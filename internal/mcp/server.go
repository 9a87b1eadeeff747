package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "fitcoach-context"
	ServerVersion = "1.0.0"
)

// NewServer builds the MCP server with read-only fitness tools.
// It runs over stdio in cmd/fitcoach_mcp and over streamable HTTP at /mcp.
func NewServer(service contextService) *mcp.Server {
	h := NewHandler(service)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_fitcoach_schema",
		Description: "Returns the DB schema of the fitness tables (workouts, plans, programs, exercises, sessions, food and progress logs): columns, types, nullable, default.",
	}, h.SchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workouts_for_range",
		Description: "Returns the workouts (not templates) of a user scheduled or completed within a date range, with sections, exercises and sets. Args: user_id, from_date, to_date (YYYY-MM-DD).",
	}, h.WorkoutsForRangeTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weekly_stats",
		Description: "Returns completed workouts, total minutes and total volume of a user for the 7 days ending at date. Args: user_id; optional: date (YYYY-MM-DD).",
	}, h.WeeklyStatsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_nutrition_summary",
		Description: "Returns per-day macro totals, goals and meals of a user within a date range, days without logs included. Args: user_id, from_date, to_date (YYYY-MM-DD).",
	}, h.NutritionSummaryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_progress_logs",
		Description: "Returns the newest progress logs of a user (weight in kg, body fat, measurements in cm). Args: user_id; optional: limit (default 10).",
	}, h.ProgressLogsTool())

	return s
}

// NewHTTPHandler serves server over streamable HTTP. The same server instance
// handles every request.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
