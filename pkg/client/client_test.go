package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SignInAndRefresh(t *testing.T) {
	expires := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/signin":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-1", "refresh_token": "refresh-1",
				"expires_at": expires, "session_id": "s-1",
			})
		case "/auth/refresh":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refresh_token"] != "refresh-1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"refresh token is invalid or expired"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-2", "refresh_token": "refresh-2",
				"expires_at": expires.Add(time.Hour), "session_id": "s-1",
			})
		case "/dashboard":
			_, _ = w.Write([]byte(`{"role":"member"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	ctx := context.Background()

	pair, err := c.SignIn(ctx, "ada@example.org", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", pair.RefreshToken)
	assert.True(t, expires.Equal(pair.ExpiresAt))

	next, err := c.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "access-2", next.AccessToken)

	_, err = c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-2", gotAuth[len(gotAuth)-1])

	_, err = c.Refresh(ctx, "refresh-1-replayed")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.False(t, IsTemporary(err))
}

func TestIsTemporary(t *testing.T) {
	assert.True(t, IsTemporary(&APIError{Status: http.StatusServiceUnavailable}))
	assert.True(t, IsTemporary(&APIError{Status: http.StatusTooManyRequests}))
	assert.False(t, IsTemporary(&APIError{Status: http.StatusUnauthorized}))
	assert.True(t, IsTemporary(context.DeadlineExceeded))
	assert.False(t, IsTemporary(context.Canceled))
	assert.False(t, IsTemporary(nil))
}
