// Package jwttoken issues and validates HS256 access tokens and opaque
// refresh tokens.
package jwttoken

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// AccessTokenClaims represents the JWT claims for our access tokens.
// Role is a hint for clients; authorization re-reads the role through the session.
type AccessTokenClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	Env       string `json:"env,omitempty"`
	jwt.RegisteredClaims
}

// AccessToken is a signed token together with the values callers need
// without parsing it again.
type AccessToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	env        string
}

func NewJWTService(signingKey, issuer string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// SetEnv annotates issued tokens with an environment string (e.g. "dev").
func (s *JWTService) SetEnv(env string) {
	s.env = env
}

// TTL reports the lifetime of issued access tokens.
func (s *JWTService) TTL() time.Duration {
	return s.tokenTTL
}

func (s *JWTService) GenerateAccessToken(ctx context.Context, userID id.UserID, sessionID id.SessionID, role id.Role) (*AccessToken, error) {
	if userID.IsNil() || sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user and session are required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	jti := hex.EncodeToString(b)
	now := requestcontext.Now(ctx)
	expiresAt := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		Role:      role.String(),
		Env:       s.env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        jti,
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, err
	}
	return &AccessToken{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "empty token")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidGrant, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid token claims")
	}
	return claims, nil
}

// CreateRefreshToken returns 32 random bytes, base64url encoded.
func (s *JWTService) CreateRefreshToken() (string, error) {
	return randomToken(32)
}

// CreateResetToken returns an opaque password reset token.
func (s *JWTService) CreateResetToken() (string, error) {
	return randomToken(32)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
