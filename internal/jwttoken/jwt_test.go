package jwttoken

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

var (
	userID    = id.UserID(uuid.New())
	sessionID = id.SessionID(uuid.New())
)

func newService() *JWTService {
	return NewJWTService("test-signing-key", "civic-test", 15*time.Minute)
}

func Test_GenerateAccessToken(t *testing.T) {
	svc := newService()
	now := time.Now().Truncate(time.Second)
	ctx := requestcontext.WithTime(context.Background(), now)

	token, err := svc.GenerateAccessToken(ctx, userID, sessionID, id.RoleEditor)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
	assert.Len(t, token.JTI, 32)
	assert.Equal(t, now.Add(15*time.Minute), token.ExpiresAt)

	claims, err := svc.ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, token.JTI, claims.ID)
}

func Test_GenerateAccessToken_RejectsInvalidInput(t *testing.T) {
	svc := newService()
	_, err := svc.GenerateAccessToken(context.Background(), id.UserID(uuid.Nil), sessionID, id.RoleMember)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = svc.GenerateAccessToken(context.Background(), userID, sessionID, id.Role("root"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := newService().ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	svc := newService()
	ctx := requestcontext.WithTime(context.Background(), time.Now().Add(-time.Hour))
	token, err := svc.GenerateAccessToken(ctx, userID, sessionID, id.RoleMember)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token.Token)
	require.ErrorContains(t, err, "token expired")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidGrant))
}

func Test_ValidateToken_RejectsForeignIssuer(t *testing.T) {
	other := NewJWTService("test-signing-key", "someone-else", time.Minute)
	token, err := other.GenerateAccessToken(context.Background(), userID, sessionID, id.RoleMember)
	require.NoError(t, err)

	_, err = newService().ValidateToken(token.Token)
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_RejectsAlgorithmConfusion(t *testing.T) {
	claims := AccessTokenClaims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		Role:      "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    "civic-test",
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newService().ValidateToken(unsigned)
	require.Error(t, err)
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("other-key", "civic-test", time.Minute)
	token, err := other.GenerateAccessToken(context.Background(), userID, sessionID, id.RoleMember)
	require.NoError(t, err)

	_, err = newService().ValidateToken(token.Token)
	require.Error(t, err)
}

func Test_CreateRefreshToken(t *testing.T) {
	svc := newService()
	a, err := svc.CreateRefreshToken()
	require.NoError(t, err)
	b, err := svc.CreateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func Test_Adapter(t *testing.T) {
	svc := newService()
	token, err := svc.GenerateAccessToken(context.Background(), userID, sessionID, id.RoleAdmin)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(svc).ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, token.JTI, claims.JTI)
}
