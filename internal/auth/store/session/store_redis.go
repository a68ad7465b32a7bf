package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix     = "civic:session:"
	userSessionKeyPrefix = "civic:user_sessions:"

	// maxSessionsPerUser caps how many sessions ListByUser loads.
	maxSessionsPerUser = 100

	// revokedRetention keeps revoked sessions readable so a revoked token gets
	// "revoked" rather than "not found" until it would have expired anyway.
	revokedRetention = time.Hour
)

// sessionJSON is the stored representation. Times are Unix nanoseconds.
type sessionJSON struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	Status            string `json:"status"`
	DeviceDisplayName string `json:"device_display_name"`
	ClientIPPrefix    string `json:"client_ip_prefix"`
	CreatedAt         int64  `json:"created_at"`
	ExpiresAt         int64  `json:"expires_at"`
	LastSeenAt        int64  `json:"last_seen_at"`
	LastRefreshedAt   *int64 `json:"last_refreshed_at,omitempty"`
	RevokedAt         *int64 `json:"revoked_at,omitempty"`
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ts := t.UnixNano()
	return &ts
}

func timePtr(ts *int64) *time.Time {
	if ts == nil {
		return nil
	}
	t := time.Unix(0, *ts)
	return &t
}

func sessionToJSON(s *models.Session) *sessionJSON {
	return &sessionJSON{
		ID:                s.ID.String(),
		UserID:            s.UserID.String(),
		Status:            string(s.Status),
		DeviceDisplayName: s.DeviceDisplayName,
		ClientIPPrefix:    s.ClientIPPrefix,
		CreatedAt:         s.CreatedAt.UnixNano(),
		ExpiresAt:         s.ExpiresAt.UnixNano(),
		LastSeenAt:        s.LastSeenAt.UnixNano(),
		LastRefreshedAt:   unixPtr(s.LastRefreshedAt),
		RevokedAt:         unixPtr(s.RevokedAt),
	}
}

func sessionFromJSON(j *sessionJSON) (*models.Session, error) {
	sessionID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &models.Session{
		ID:                id.SessionID(sessionID),
		UserID:            id.UserID(userID),
		Status:            models.SessionStatus(j.Status),
		DeviceDisplayName: j.DeviceDisplayName,
		ClientIPPrefix:    j.ClientIPPrefix,
		CreatedAt:         time.Unix(0, j.CreatedAt),
		ExpiresAt:         time.Unix(0, j.ExpiresAt),
		LastSeenAt:        time.Unix(0, j.LastSeenAt),
		LastRefreshedAt:   timePtr(j.LastRefreshedAt),
		RevokedAt:         timePtr(j.RevokedAt),
	}, nil
}

func decodeSession(data string) (*models.Session, error) {
	var j sessionJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sessionFromJSON(&j)
}

// RedisStore persists sessions in Redis so every instance shares them.
// Keys expire with the session, so DeleteExpiredSessions has nothing to do.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func sessionKey(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func userSessionsKey(userID id.UserID) string {
	return userSessionKeyPrefix + userID.String()
}

// ttlFor keeps active sessions until expiry and revoked ones briefly.
func (s *RedisStore) ttlFor(session *models.Session) time.Duration {
	ttl := session.ExpiresAt.Sub(s.now())
	if session.IsRevoked() && ttl > revokedRetention {
		ttl = revokedRetention
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return ttl
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	data, err := json.Marshal(sessionToJSON(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := s.ttlFor(session)
	userKey := userSessionsKey(session.UserID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, ttl)
	pipe.SAdd(ctx, userKey, session.ID.String())
	pipe.Expire(ctx, userKey, ttl+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return decodeSession(data)
}

func (s *RedisStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	userKey := userSessionsKey(userID)
	sessionIDs, err := s.client.SRandMemberN(ctx, userKey, maxSessionsPerUser).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids by user: %w", err)
	}
	if len(sessionIDs) == 0 {
		return []*models.Session{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		cmds[i] = pipe.Get(ctx, sessionKeyPrefix+sid)
	}
	// Missing keys surface as redis.Nil per command and are handled below.
	_, _ = pipe.Exec(ctx)

	sessions := make([]*models.Session, 0, len(sessionIDs))
	stale := make([]any, 0)
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, sessionIDs[i])
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get session: %w", err)
		}
		session, err := decodeSession(data)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, userKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune user sessions: %w", err)
		}
	}

	sortNewestFirst(sessions)
	return sessions, nil
}

// Execute atomically validates and mutates a session under optimistic lock.
func (s *RedisStore) Execute(ctx context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	key := sessionKey(sessionID)
	var result *models.Session

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get session for execute: %w", err)
		}
		session, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := validate(session); err != nil {
			result = session
			return err
		}
		mutate(session)

		newData, err := json.Marshal(sessionToJSON(session))
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, s.ttlFor(session))
			return nil
		})
		if err != nil {
			return err
		}
		result = session
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("session modified concurrently: %w", sentinel.ErrConflict)
	}
	return result, err
}

func (s *RedisStore) RevokeAllByUser(ctx context.Context, userID id.UserID, at time.Time) (int, error) {
	sessionIDs, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list session ids for revoke: %w", err)
	}
	count := 0
	for _, raw := range sessionIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		revoked := false
		_, err = s.Execute(ctx, id.SessionID(parsed),
			func(*models.Session) error { return nil },
			func(session *models.Session) { revoked = session.Revoke(at) },
		)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return count, err
		}
		if revoked {
			count++
		}
	}
	return count, nil
}

// DeleteExpiredSessions is a no-op: Redis expires session keys itself.
func (s *RedisStore) DeleteExpiredSessions(context.Context, time.Time) (int, error) {
	return 0, nil
}
