// Package client is a small Go client for the civic HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenPair is the credential set returned by sign-in, sign-up and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	SessionID    string    `json:"session_id"`
	User         User      `json:"user"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type Document struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Version   int        `json:"version"`
	LockedBy  *string    `json:"locked_by"`
	LockedAt  *time.Time `json:"locked_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// IsTemporary treats transport failures and 5xx/429 responses as retryable.
func IsTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return err != nil && !errors.Is(err, context.Canceled)
}

type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAccessToken replaces the bearer token sent with authenticated calls.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*TokenPair, error) {
	var out TokenPair
	body := map[string]string{"email": email, "password": password, "display_name": displayName}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &out); err != nil {
		return nil, err
	}
	c.SetAccessToken(out.AccessToken)
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	var out TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signin", body, &out); err != nil {
		return nil, err
	}
	c.SetAccessToken(out.AccessToken)
	return &out, nil
}

// Refresh rotates the pair. The refresh token is single use.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &out); err != nil {
		return nil, err
	}
	c.SetAccessToken(out.AccessToken)
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/signout", nil, nil)
}

// Dashboard returns the raw role-specific summary.
func (c *Client) Dashboard(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LockDocument(ctx context.Context, docID string) (*Document, error) {
	var out Document
	if err := c.do(ctx, http.MethodPost, "/documents/"+docID+"/lock", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveDocument writes content on top of baseVersion. The caller must hold the lock.
func (c *Client) SaveDocument(ctx context.Context, docID, title, content string, baseVersion int) (*Document, error) {
	var out Document
	body := map[string]any{"title": title, "content": content, "base_version": baseVersion}
	if err := c.do(ctx, http.MethodPut, "/documents/"+docID, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UnlockDocument(ctx context.Context, docID string) (*Document, error) {
	var out Document
	if err := c.do(ctx, http.MethodDelete, "/documents/"+docID+"/lock", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
