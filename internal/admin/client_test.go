package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/profile"
)

func TestClientRequiresToken(t *testing.T) {
	c := NewClient("http://localhost:0", "")

	err := c.DeleteUserAccount(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, errs.Auth, errs.CodeOf(err))
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	c := NewClient(server.URL, "session-token")
	require.NoError(t, c.DeleteUserAccount(context.Background(), "u1"))

	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Equal(t, "/api/admin/delete-user", gotPath)
}

func TestClientDecodesCreatedUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params CreateUserParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    profile.Profile{ID: "u-new", Email: params.Email, Role: "user"},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "token")
	p, err := c.CreateUser(context.Background(), CreateUserParams{Email: "new@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "u-new", p.ID)
	assert.Equal(t, "new@example.com", p.Email)
}

func TestClientMapsErrorStatuses(t *testing.T) {
	cases := []struct {
		status   int
		wantCode errs.Code
	}{
		{http.StatusUnauthorized, errs.Auth},
		{http.StatusForbidden, errs.PermissionDenied},
		{http.StatusBadRequest, errs.Validation},
		{http.StatusInternalServerError, errs.Database},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "route message"})
		}))

		c := NewClient(server.URL, "token")
		err := c.DeleteUserAccount(context.Background(), "u1")
		server.Close()

		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.wantCode, errs.CodeOf(err), "status %d", tc.status)
		assert.Contains(t, errs.MessageOf(err), "route message")
	}
}

func TestClientFallsBackToGenericMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, "token")
	err := c.DeleteUserAccount(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, errs.MessageOf(err), "Failed to delete user account")
}
