package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
)

// DefaultLeeway is how long before expiry the refresher renews a token.
const DefaultLeeway = 60 * time.Second

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("refresher stopped")

// Renewer exchanges a refresh token for a new pair. *Client implements it.
type Renewer interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// Refresher keeps a token pair fresh with a single timer set to fire
// leeway before the access token expires. Each success reschedules the
// timer from the new expiry.
type Refresher struct {
	renewer        Renewer
	leeway         time.Duration
	attemptTimeout time.Duration
	initialBackOff time.Duration
	maxBackOff     time.Duration
	onRefresh      func(*TokenPair)
	onError        func(error)
	now            func() time.Time
	logger         *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pair    TokenPair
	timer   *time.Timer
	started bool
	stopped bool
}

type RefresherOption func(*Refresher)

// WithLeeway sets how early renewal starts. Negative values are ignored.
func WithLeeway(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d >= 0 {
			r.leeway = d
		}
	}
}

// WithBackOff bounds the retry intervals after a failed refresh.
func WithBackOff(initial, max time.Duration) RefresherOption {
	return func(r *Refresher) {
		if initial > 0 {
			r.initialBackOff = initial
		}
		if max >= initial && max > 0 {
			r.maxBackOff = max
		}
	}
}

func WithAttemptTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.attemptTimeout = d
		}
	}
}

// OnRefresh is called with every new pair, outside the refresher's lock.
func OnRefresh(fn func(*TokenPair)) RefresherOption {
	return func(r *Refresher) { r.onRefresh = fn }
}

// OnError is called once when retries are exhausted. The refresher is
// idle afterwards; Start it again with a fresh pair after re-authenticating.
func OnError(fn func(error)) RefresherOption {
	return func(r *Refresher) { r.onError = fn }
}

func WithRefresherLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) { r.logger = logger }
}

func NewRefresher(renewer Renewer, opts ...RefresherOption) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher{
		renewer:        renewer,
		leeway:         DefaultLeeway,
		attemptTimeout: 10 * time.Second,
		initialBackOff: 500 * time.Millisecond,
		maxBackOff:     30 * time.Second,
		now:            time.Now,
		logger:         slog.Default(),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start adopts pair and schedules its renewal, replacing any pending timer.
func (r *Refresher) Start(pair *TokenPair) error {
	if pair == nil {
		return errors.New("token pair is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	r.pair = *pair
	r.started = true
	r.scheduleLocked()
	return nil
}

// Token returns a copy of the current pair.
func (r *Refresher) Token() TokenPair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pair
}

// Stop cancels the timer and any refresh in flight, and waits for it to
// return. It is safe to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	if r.timer != nil && r.timer.Stop() {
		// The callback will never run, so release its slot here.
		r.wg.Done()
	}
	r.timer = nil
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// scheduleLocked arms the timer at expires_at - leeway, clamped at zero.
func (r *Refresher) scheduleLocked() {
	if r.timer != nil && r.timer.Stop() {
		r.wg.Done()
	}
	delay := max(r.pair.ExpiresAt.Sub(r.now())-r.leeway, 0)
	r.wg.Add(1)
	r.timer = time.AfterFunc(delay, func() {
		defer r.wg.Done()
		r.fire()
	})
}

func (r *Refresher) fire() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	current := r.pair
	r.mu.Unlock()

	next, err := r.refreshWithRetry(current)
	if r.ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	if r.stopped || r.pair.RefreshToken != current.RefreshToken {
		// Stopped, or Start adopted another pair while we were refreshing.
		// That pair has its own timer, so neither outcome is reported.
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.mu.Unlock()
		r.logger.Warn("session refresh failed", "error", err, "session_id", current.SessionID)
		if r.onError != nil {
			r.onError(err)
		}
		return
	}
	r.pair = *next
	r.scheduleLocked()
	r.mu.Unlock()

	if r.onRefresh != nil {
		r.onRefresh(next)
	}
}

// refreshWithRetry retries temporary failures with exponential backoff
// until the current access token would expire.
func (r *Refresher) refreshWithRetry(current TokenPair) (*TokenPair, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initialBackOff
	bo.MaxInterval = r.maxBackOff
	// Zero would mean retry forever; an expired token still gets one attempt.
	bo.MaxElapsedTime = max(current.ExpiresAt.Sub(r.now()), time.Millisecond)

	var next *TokenPair
	op := func() error {
		ctx, cancel := context.WithTimeout(r.ctx, r.attemptTimeout)
		defer cancel()
		pair, err := r.renewer.Refresh(ctx, current.RefreshToken)
		if err != nil {
			if r.ctx.Err() != nil || !IsTemporary(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		next = pair
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Info("retrying session refresh", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, r.ctx), notify); err != nil {
		return nil, err
	}
	return next, nil
}

// StartRefresher keeps c's bearer token current. Client.Refresh installs
// each new access token, so callers only need OnRefresh to persist the pair.
func (c *Client) StartRefresher(pair *TokenPair, opts ...RefresherOption) (*Refresher, error) {
	r := NewRefresher(c, opts...)
	if err := r.Start(pair); err != nil {
		r.Stop()
		return nil, err
	}
	c.SetAccessToken(pair.AccessToken)
	return r, nil
}
