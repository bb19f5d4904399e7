package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginPersistsTokenAndUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, AuthResponse{
			Message: "Login successful",
			Token:   "tok-123",
			Data:    User{ID: "u-1", Email: "ada@example.com", FirstName: "Ada"},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := NewMemStore()
	c := New(server.URL, store)

	resp, err := c.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-123", resp.Token)

	token, ok := store.Get(KeyToken)
	require.True(t, ok)
	require.Equal(t, "tok-123", token)

	user, ok := c.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, "Ada", user.FirstName)
}

func TestLogoutClearsCredentials(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set(KeyToken, "tok"))
	require.NoError(t, store.Set(KeyUser, `{"id":"u-1"}`))

	c := New("http://unused", store)
	c.Logout()

	_, ok := store.Get(KeyToken)
	require.False(t, ok)
	_, ok = c.CurrentUser()
	require.False(t, ok)
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var authorization string
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, []Transaction{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := NewMemStore()
	require.NoError(t, store.Set(KeyToken, "tok-456"))
	c := New(server.URL, store)

	_, err := c.Transactions(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-456", authorization)
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"token expired"}`, "token expired"},
		{"detail field", `{"detail":"preview not found"}`, "preview not found"},
		{"message wins over detail", `{"message":"a","detail":"b"}`, "a"},
		{"unparseable body", `<html>bad gateway</html>`, "Request failed"},
		{"empty object", `{}`, "Request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := New(server.URL, NewMemStore())
			_, err := c.Transactions(context.Background())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusBadRequest, apiErr.Status)
			require.Equal(t, tt.want, apiErr.Message)
		})
	}
}
