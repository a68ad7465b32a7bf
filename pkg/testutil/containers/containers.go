//go:build integration

// Package containers starts Postgres, Redis and Kafka once per test binary
// and hands the same instances to every integration suite.
package containers

import (
	"sync"
	"testing"
)

type Manager struct {
	postgres lazy[*PostgresContainer]
	redis    lazy[*RedisContainer]
	kafka    lazy[*KafkaContainer]
}

var manager = &Manager{}

func GetManager() *Manager { return manager }

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return m.postgres.get(t, NewPostgresContainer)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return m.redis.get(t, NewRedisContainer)
}

func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return m.kafka.get(t, NewKafkaContainer)
}

// lazy starts its container on first use. A failed start is not cached:
// start calls t.Fatalf, and the next suite retries.
type lazy[T any] struct {
	mu      sync.Mutex
	started bool
	value   T
}

func (l *lazy[T]) get(t *testing.T, start func(*testing.T) T) T {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		l.value = start(t)
		l.started = true
	}
	return l.value
}
