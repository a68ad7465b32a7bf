package models

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civic/pkg/domain-errors"
)

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{Status: SessionStatusActive, CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(time.Hour)}

	require.NoError(t, s.ValidateForRefresh(now.Add(time.Minute)))

	err := s.ValidateForRefresh(now.Add(time.Hour))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidGrant))

	later := now.Add(10 * time.Minute)
	s.RecordRefresh(later)
	s.RecordRefresh(now)
	assert.Equal(t, later, *s.LastRefreshedAt)
	assert.Equal(t, later, s.LastSeenAt)

	assert.True(t, s.Revoke(later))
	assert.False(t, s.Revoke(later.Add(time.Minute)))
	assert.Equal(t, later, *s.RevokedAt)
	err = s.ValidateForRefresh(now)
	assert.ErrorContains(t, err, "session has been revoked")
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

func TestSignInFormRedirectTarget(t *testing.T) {
	form := SignInFormFromValues(url.Values{"email": {" Ana@Example.com "}, "password": {"pw"}, "next": {"/documents"}})
	assert.Equal(t, "ana@example.com", form.Email)
	assert.Equal(t, "/documents", form.RedirectTarget("/dashboard"))

	form = SignInFormFromValues(url.Values{"next": {"https://evil.example"}})
	assert.Equal(t, "/dashboard", form.RedirectTarget("/dashboard"))
}

func TestRequestValidation(t *testing.T) {
	signUp := &SignUpRequest{Email: "ana@example.com", Password: "short", DisplayName: "Ana"}
	assert.ErrorContains(t, signUp.Validate(), "password must be at least 8 characters")

	refresh := &RefreshRequest{RefreshToken: "  "}
	refresh.Normalize()
	assert.ErrorContains(t, refresh.Validate(), "refresh_token is required")

	role := &SetRoleRequest{Role: " Editor "}
	role.Normalize()
	assert.NoError(t, role.Validate())
	role.Role = "owner"
	assert.True(t, dErrors.HasCode(role.Validate(), dErrors.CodeValidation))
}
