//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/2beens/fitcoach/internal/middleware"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	ID       int
	Email    string
	Password string
	Token    string
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// doRequest sends body as JSON and returns the status and the raw response body.
func doRequest(ctx context.Context, t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reader)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.AuthTokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func doJSON(ctx context.Context, t *testing.T, method, path, token string, body any, expectedStatus int, out any) {
	t.Helper()
	status, respBytes := doRequest(ctx, t, method, path, token, body)
	require.Equal(t, expectedStatus, status, string(respBytes))
	if out != nil {
		require.NoError(t, json.Unmarshal(respBytes, out))
	}
}

func registerUser(ctx context.Context, t *testing.T) testUser {
	t.Helper()
	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)
	var resp authResponse
	doJSON(ctx, t, http.MethodPost, "/a/register", "", map[string]string{
		"email":     email,
		"password":  password,
		"full_name": gofakeit.Name(),
	}, http.StatusCreated, &resp)
	require.NotEmpty(t, resp.Token)
	return testUser{ID: resp.User.ID, Email: email, Password: password, Token: resp.Token}
}
