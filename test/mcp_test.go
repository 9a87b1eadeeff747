//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/2beens/fitcoach/internal/middleware"
	"github.com/2beens/fitcoach/internal/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mcpSecretTransport struct {
	secret string
}

func (t *mcpSecretTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(middleware.MCPSecretHeader, t.secret)
	return http.DefaultTransport.RoundTrip(req)
}

func (s *IntegrationTestSuite) TestMCPRequiresSecret() {
	t := s.T()
	req, err := http.NewRequest(http.MethodPost, serverEndpoint+"/mcp", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestMCPWeeklyStats() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := registerUser(ctx, t)

	client := mcp.NewClient(&mcp.Implementation{Name: "fitcoach-it", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   serverEndpoint + "/mcp",
		HTTPClient: &http.Client{Transport: &mcpSecretTransport{secret: testMCPSecret}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 5)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_weekly_stats",
		Arguments: map[string]any{"user_id": user.ID},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var stats workouts.WeeklyStats
	require.NoError(t, json.Unmarshal([]byte(text.Text), &stats))
	assert.Zero(t, stats.WorkoutsCompleted)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_fitcoach_schema",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	text, ok = res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "## active_session")
	assert.Contains(t, text.Text, "## workout")
}
