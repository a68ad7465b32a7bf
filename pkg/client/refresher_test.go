package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type scriptedRenewer struct {
	mu    sync.Mutex
	calls []string
	// failures holds errors returned before the next success.
	failures []error
	ttl      time.Duration
	block    bool
}

func (s *scriptedRenewer) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	s.mu.Lock()
	s.calls = append(s.calls, refreshToken)
	n := len(s.calls)
	var err error
	if len(s.failures) > 0 {
		err, s.failures = s.failures[0], s.failures[1:]
	}
	block := s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh-" + string(rune('a'+n)),
		ExpiresAt:    time.Now().Add(s.ttl),
	}, nil
}

func (s *scriptedRenewer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func fastOptions(extra ...RefresherOption) []RefresherOption {
	return append([]RefresherOption{
		WithLeeway(20 * time.Millisecond),
		WithBackOff(time.Millisecond, 5*time.Millisecond),
	}, extra...)
}

func TestRefresher_RenewsAndReschedules(t *testing.T) {
	defer goleak.VerifyNone(t)

	renewer := &scriptedRenewer{ttl: 40 * time.Millisecond}
	refreshed := make(chan TokenPair, 4)
	r := NewRefresher(renewer, fastOptions(OnRefresh(func(p *TokenPair) { refreshed <- *p }))...)

	require.NoError(t, r.Start(&TokenPair{RefreshToken: "refresh-0", ExpiresAt: time.Now().Add(30 * time.Millisecond)}))

	first := <-refreshed
	second := <-refreshed
	r.Stop()

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	renewer.mu.Lock()
	defer renewer.mu.Unlock()
	assert.Equal(t, "refresh-0", renewer.calls[0])
	assert.Equal(t, first.RefreshToken, renewer.calls[1], "each refresh uses the rotated token")
}

func TestRefresher_ExpiredTokenRefreshesImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	renewer := &scriptedRenewer{ttl: time.Hour}
	done := make(chan struct{})
	r := NewRefresher(renewer, fastOptions(OnRefresh(func(*TokenPair) { close(done) }))...)

	require.NoError(t, r.Start(&TokenPair{RefreshToken: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected an immediate refresh")
	}
	r.Stop()
	assert.Equal(t, 1, renewer.callCount())
}

func TestRefresher_RetriesTemporaryFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	renewer := &scriptedRenewer{
		ttl:      time.Hour,
		failures: []error{&APIError{Status: http.StatusBadGateway}, errors.New("connection reset")},
	}
	done := make(chan TokenPair, 1)
	r := NewRefresher(renewer, fastOptions(
		WithLeeway(400*time.Millisecond),
		OnRefresh(func(p *TokenPair) { done <- *p }),
	)...)

	require.NoError(t, r.Start(&TokenPair{RefreshToken: "t0", ExpiresAt: time.Now().Add(500 * time.Millisecond)}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never succeeded")
	}
	r.Stop()
	assert.Equal(t, 3, renewer.callCount())
}

func TestRefresher_PermanentFailureStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	renewer := &scriptedRenewer{
		ttl:      time.Hour,
		failures: []error{&APIError{Status: http.StatusBadRequest, Code: "invalid_grant"}},
	}
	failed := make(chan error, 1)
	r := NewRefresher(renewer, fastOptions(OnError(func(err error) { failed <- err }))...)

	require.NoError(t, r.Start(&TokenPair{RefreshToken: "t0", ExpiresAt: time.Now().Add(10 * time.Millisecond)}))
	var err error
	select {
	case err = <-failed:
	case <-time.After(time.Second):
		t.Fatal("expected the failure callback")
	}
	r.Stop()

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, 1, renewer.callCount())
	assert.Equal(t, "t0", r.Token().RefreshToken, "failed refresh keeps the old pair")
}

// gatedRenewer holds each Refresh until the test releases it with a result.
type gatedRenewer struct {
	entered chan string
	release chan error
}

func (g *gatedRenewer) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	g.entered <- refreshToken
	select {
	case err := <-g.release:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefresher_FailureForReplacedPairIsNotReported(t *testing.T) {
	defer goleak.VerifyNone(t)

	renewer := &gatedRenewer{entered: make(chan string, 1), release: make(chan error, 1)}
	failed := make(chan error, 1)
	r := NewRefresher(renewer, fastOptions(OnError(func(err error) { failed <- err }))...)

	require.NoError(t, r.Start(&TokenPair{RefreshToken: "t0", ExpiresAt: time.Now()}))
	assert.Equal(t, "t0", <-renewer.entered)

	// The caller signed in again while the old token was being refreshed.
	require.NoError(t, r.Start(&TokenPair{RefreshToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)}))
	renewer.release <- &APIError{Status: http.StatusBadRequest, Code: "invalid_grant"}

	select {
	case err := <-failed:
		t.Fatalf("failure of a replaced pair was reported: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	r.Stop()
	assert.Equal(t, "fresh", r.Token().RefreshToken)
}

func TestRefresher_GivesUpAtExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	outage := make([]error, 1000)
	for i := range outage {
		outage[i] = &APIError{Status: http.StatusServiceUnavailable}
	}
	renewer := &scriptedRenewer{ttl: time.Hour, failures: outage}
	failed := make(chan error, 1)
	r := NewRefresher(renewer, fastOptions(OnError(func(err error) { failed <- err }))...)

	require.NoError(t, r.Start(&TokenPair{RefreshToken: "t0", ExpiresAt: time.Now().Add(60 * time.Millisecond)}))
	select {
	case err := <-failed:
		assert.True(t, IsTemporary(err))
	case <-time.After(2 * time.Second):
		t.Fatal("retries should stop once the token expires")
	}
	r.Stop()
	assert.Greater(t, renewer.callCount(), 1)
}

func TestRefresher_StopCancelsInFlightRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	renewer := &scriptedRenewer{ttl: time.Hour, block: true}
	r := NewRefresher(renewer, fastOptions(OnError(func(error) { t.Error("stop must not report an error") }))...)
	require.NoError(t, r.Start(&TokenPair{RefreshToken: "t0", ExpiresAt: time.Now()}))

	require.Eventually(t, func() bool { return renewer.callCount() == 1 }, time.Second, time.Millisecond)
	r.Stop()
	r.Stop()

	assert.ErrorIs(t, r.Start(&TokenPair{}), ErrStopped)
}

func TestRefresher_StopBeforeFire(t *testing.T) {
	defer goleak.VerifyNone(t)

	renewer := &scriptedRenewer{ttl: time.Hour}
	r := NewRefresher(renewer)
	require.NoError(t, r.Start(&TokenPair{RefreshToken: "t0", ExpiresAt: time.Now().Add(time.Hour)}))
	r.Stop()
	assert.Zero(t, renewer.callCount())
}
