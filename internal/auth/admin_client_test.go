package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdminAPI serves the two Admin API routes the client uses.
func fakeAdminAPI(t *testing.T, users []AdminUser) (*httptest.Server, *[]CreateUserRequest) {
	t.Helper()
	var created []CreateUserRequest

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		json.NewEncoder(w).Encode(listUsersResponse{Users: users})
	})
	mux.HandleFunc("POST /auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		created = append(created, req)
		users = append(users, AdminUser{ID: "new-id", Email: req.Email})
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(AdminUser{ID: "new-id", Email: req.Email, Role: "authenticated"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &created
}

func TestEnsureUser(t *testing.T) {
	srv, created := fakeAdminAPI(t, []AdminUser{{ID: "ada-id", Email: "ada@devmatch.local"}})
	c := NewAdminClient(srv.URL, "service-key")
	ctx := context.Background()

	id, err := c.EnsureUser(ctx, "ada@devmatch.local", "pw", nil)
	require.NoError(t, err)
	assert.Equal(t, "ada-id", id)
	assert.Empty(t, *created)

	id, err = c.EnsureUser(ctx, "ken@devmatch.local", "pw", map[string]any{"display_name": "Ken"})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	require.Len(t, *created, 1)
	assert.True(t, (*created)[0].EmailConfirm)
	assert.Equal(t, "Ken", (*created)[0].UserMetadata["display_name"])

	id, err = c.EnsureUser(ctx, "ken@devmatch.local", "pw", nil)
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	assert.Len(t, *created, 1)
}

func TestAdminClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"msg":"invalid JWT"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewAdminClient(srv.URL, "wrong").FindUserIDByEmail(context.Background(), "ada@devmatch.local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
