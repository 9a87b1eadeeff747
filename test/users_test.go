//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestRegisterLoginLogout() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := registerUser(ctx, t)

	var me map[string]any
	doJSON(ctx, t, http.MethodGet, "/me", user.Token, nil, http.StatusOK, &me)
	assert.Equal(t, user.Email, me["email"])
	assert.NotNil(t, me["macro_goals"])

	status, _ := doRequest(ctx, t, http.MethodPost, "/a/register", "", map[string]string{
		"email":    user.Email,
		"password": "another-password",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body := doRequest(ctx, t, http.MethodPost, "/a/login", "", map[string]string{
		"email":    user.Email,
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error, wrong credentials\n", string(body))

	var login authResponse
	doJSON(ctx, t, http.MethodPost, "/a/login", "", map[string]string{
		"email":    user.Email,
		"password": user.Password,
	}, http.StatusOK, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID, login.User.ID)

	status, _ = doRequest(ctx, t, http.MethodGet, "/a/logout", login.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(ctx, t, http.MethodGet, "/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// the register token is still valid
	status, _ = doRequest(ctx, t, http.MethodGet, "/me", user.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func (s *IntegrationTestSuite) TestPublicRoutes() {
	t := s.T()
	ctx := context.Background()

	status, body := doRequest(ctx, t, http.MethodGet, "/version", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "test-version-info", string(body))

	status, _ = doRequest(ctx, t, http.MethodGet, "/workouts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(ctx, t, http.MethodGet, "/workouts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
