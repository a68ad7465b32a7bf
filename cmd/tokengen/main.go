// Package main mints and inspects access tokens for local development.
// Tokens are signed with the key the server would load from the same
// environment, so they only work against a server sharing that key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"civic/internal/jwttoken"
	"civic/internal/platform/config"
	id "civic/pkg/domain"

	"github.com/google/uuid"
)

type tokenOutput struct {
	Token     string            `json:"token,omitempty"`
	Type      string            `json:"type"`
	ExpiresAt string            `json:"expires_at,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage,omitempty"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	accessUserID := accessCmd.String("user-id", "", "User ID (UUID). Generated if empty.")
	accessSessionID := accessCmd.String("session-id", "", "Session ID (UUID). Must name a live session for the server to accept the token. Generated if empty.")
	accessRole := accessCmd.String("role", string(id.RoleMember), "Role claim: member, editor or admin")
	accessTTL := accessCmd.Duration("ttl", 0, "Token time-to-live. Defaults to ACCESS_TOKEN_TTL.")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	decodeCmd := flag.NewFlagSet("decode", flag.ExitOnError)
	decodeJSON := decodeCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		accessCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		ttl := *accessTTL
		if ttl <= 0 {
			ttl = cfg.AccessTokenTTL
		}
		generateAccessToken(cfg, *accessUserID, *accessSessionID, id.Role(*accessRole), ttl, *accessJSON)
	case "decode":
		decodeCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		if decodeCmd.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "decode expects exactly one token argument")
			os.Exit(1)
		}
		decodeToken(cfg, decodeCmd.Arg(0), *decodeJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - mint and inspect civic access tokens

The signing key and issuer come from CIVIC_JWT_SIGNING_KEY and
CIVIC_JWT_ISSUER (or config.yaml), exactly as the server loads them.

Usage:
  tokengen <command> [flags]

Commands:
  access    Mint an access token (JWT)
  decode    Validate a token and print its claims

Examples:
  # Member token with generated IDs
  tokengen access

  # Editor token for an existing user and session
  tokengen access -role editor -user-id <uuid> -session-id <uuid>

  # One hour admin token as JSON
  tokengen access -role admin -ttl 1h -json

  tokengen decode eyJhbGciOi...

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAccessToken(cfg config.Server, userID, sessionID string, role id.Role, ttl time.Duration, jsonOutput bool) {
	if !role.IsValid() {
		fmt.Fprintf(os.Stderr, "Invalid role: %q\n", role)
		os.Exit(1)
	}
	uid := id.UserID(parseOrGenerateUUID(userID, "user-id"))
	sid := id.SessionID(parseOrGenerateUUID(sessionID, "session-id"))

	svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, ttl)
	svc.SetEnv(cfg.Environment)

	token, err := svc.GenerateAccessToken(context.Background(), uid, sid, role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token.Token,
			Type:      "access_token",
			ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
			Claims: map[string]any{
				"user_id": uid.String(),
				"sid":     sid.String(),
				"role":    role.String(),
				"jti":     token.JTI,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}
	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Issuer:      %s\n", cfg.JWTIssuer)
	fmt.Printf("Expires At:  %s\n", token.ExpiresAt.UTC().Format(time.RFC3339))
	fmt.Printf("User ID:     %s\n", uid)
	fmt.Printf("Session ID:  %s\n", sid)
	fmt.Printf("Role:        %s\n", role)
	fmt.Printf("JTI:         %s\n", token.JTI)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token.Token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/dashboard")
}

func decodeToken(cfg config.Server, token string, jsonOutput bool) {
	svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTokenTTL)
	claims, err := svc.ValidateToken(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid token: %v\n", err)
		os.Exit(1)
	}
	expiresAt := ""
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if jsonOutput {
		printJSON(tokenOutput{
			Type:      "access_token",
			ExpiresAt: expiresAt,
			Claims: map[string]any{
				"user_id": claims.UserID,
				"sid":     claims.SessionID,
				"role":    claims.Role,
				"env":     claims.Env,
				"jti":     claims.ID,
			},
		})
		return
	}
	fmt.Printf("User ID:     %s\n", claims.UserID)
	fmt.Printf("Session ID:  %s\n", claims.SessionID)
	fmt.Printf("Role:        %s\n", claims.Role)
	fmt.Printf("Env:         %s\n", claims.Env)
	fmt.Printf("Expires At:  %s\n", expiresAt)
}

func parseOrGenerateUUID(input, fieldName string) uuid.UUID {
	if input == "" {
		return uuid.New()
	}
	parsed, err := uuid.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s UUID: %s\n", fieldName, input)
		os.Exit(1)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
