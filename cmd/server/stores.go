package main

import (
	"database/sql"

	authservice "civic/internal/auth/service"
	refreshtoken "civic/internal/auth/store/refresh-token"
	resettoken "civic/internal/auth/store/reset-token"
	"civic/internal/auth/store/session"
	"civic/internal/auth/store/user"
	"civic/internal/auth/workers/cleanup"
	"civic/internal/cases"
	docservice "civic/internal/documents/service"
	docstore "civic/internal/documents/store"
	"civic/internal/events"
	foiaservice "civic/internal/foia/service"
	foiastore "civic/internal/foia/store"
	"civic/internal/glossary"
	"civic/internal/governance"
	"civic/internal/incidents"
	"civic/internal/platform/redis"
	"civic/internal/submissions"
)

type sessionStore interface {
	authservice.SessionStore
	cleanup.SessionStore
}

type refreshTokenStore interface {
	authservice.RefreshTokenStore
	cleanup.RefreshTokenStore
}

type resetTokenStore interface {
	authservice.ResetTokenStore
	cleanup.ResetTokenStore
}

type stores struct {
	users         authservice.UserStore
	sessions      sessionStore
	refreshTokens refreshTokenStore
	resetTokens   resetTokenStore

	documents   docservice.Store
	foia        foiaservice.Store
	incidents   incidents.Store
	submissions submissions.Store
	proposals   governance.Store
	cases       cases.Store
	glossary    glossary.Store
	events      events.Store
}

// newStores picks Postgres when db is set and memory otherwise. Sessions
// move to Redis when a client is configured.
func newStores(db *sql.DB, rc *redis.Client) stores {
	var st stores
	if db != nil {
		st = stores{
			users:         user.NewPostgres(db),
			sessions:      session.NewPostgres(db),
			refreshTokens: refreshtoken.NewPostgres(db),
			resetTokens:   resettoken.NewPostgres(db),
			documents:     docstore.NewPostgres(db),
			foia:          foiastore.NewPostgres(db),
			incidents:     incidents.NewPostgresStore(db),
			submissions:   submissions.NewPostgresStore(db),
			proposals:     governance.NewPostgresStore(db),
			cases:         cases.NewPostgresStore(db),
			glossary:      glossary.NewPostgresStore(db),
			events:        events.NewPostgresStore(db),
		}
	} else {
		st = stores{
			users:         user.New(),
			sessions:      session.New(),
			refreshTokens: refreshtoken.New(),
			resetTokens:   resettoken.New(),
			documents:     docstore.New(),
			foia:          foiastore.New(),
			incidents:     incidents.NewInMemoryStore(),
			submissions:   submissions.NewInMemoryStore(),
			proposals:     governance.NewInMemoryStore(),
			cases:         cases.NewInMemoryStore(),
			glossary:      glossary.NewInMemoryStore(),
			events:        events.NewInMemoryStore(),
		}
	}
	if rc != nil {
		st.sessions = session.NewRedis(rc.Client)
	}
	return st
}
