package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpSendsMetadataAndDecodesSession(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/v1/signup", r.URL.Path)
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new@example.com", body["email"])
		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "New User", data["name"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "token-abc",
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-abc",
			"user": map[string]any{
				"id":            "user-9",
				"email":         "new@example.com",
				"user_metadata": map[string]any{"name": "New User"},
			},
		})
	}))
	defer provider.Close()

	client := NewClient(provider.URL, "anon-key")
	session, err := client.SignUp(context.Background(), "new@example.com", "secret123", "New User")
	require.NoError(t, err)
	assert.Equal(t, "token-abc", session.AccessToken)
	assert.Equal(t, 3600, session.ExpiresIn)
	require.NotNil(t, session.User)
	assert.Equal(t, "user-9", session.User.ID)
	assert.Equal(t, "New User", session.User.Name)
}

func TestSignInUsesPasswordGrant(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-def",
			"user":         map[string]any{"id": "user-1", "email": "one@example.com"},
		})
	}))
	defer provider.Close()

	client := NewClient(provider.URL, "anon-key")
	session, err := client.SignIn(context.Background(), "one@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "token-def", session.AccessToken)
	assert.Equal(t, "user-1", session.User.ID)
}

func TestSignInBadCredentials(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer provider.Close()

	client := NewClient(provider.URL, "anon-key")
	_, err := client.SignIn(context.Background(), "one@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetUserForwardsBearerToken(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		require.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":            "user-9",
			"email":         "new@example.com",
			"user_metadata": map[string]any{"name": "New User"},
		})
	}))
	defer provider.Close()

	client := NewClient(provider.URL, "anon-key")
	user, err := client.GetUser(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-9", user.ID)
	assert.Equal(t, "New User", user.Name)
}

func TestGetUserExpiredToken(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer provider.Close()

	client := NewClient(provider.URL, "anon-key")
	_, err := client.GetUser(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetUserProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	client := NewClient(provider.URL, "anon-key")
	_, err := client.GetUser(context.Background(), "token-abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
