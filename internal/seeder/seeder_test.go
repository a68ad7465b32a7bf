package seeder

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmodels "civic/internal/auth/models"
	docservice "civic/internal/documents/service"
	docstore "civic/internal/documents/store"
	"civic/internal/glossary"
	id "civic/pkg/domain"
)

type stubAccounts struct {
	users map[string]*authmodels.User
}

func (a *stubAccounts) Provision(_ context.Context, address, _, displayName string, role id.Role) (*authmodels.User, bool, error) {
	if u, ok := a.users[address]; ok {
		return u, false, nil
	}
	u := &authmodels.User{ID: id.UserID(uuid.New()), Email: address, DisplayName: displayName, Role: role}
	a.users[address] = u
	return u, true, nil
}

func newSeeder(t *testing.T) (*Seeder, *stubAccounts, *glossary.Service, *docservice.Service) {
	t.Helper()
	accounts := &stubAccounts{users: map[string]*authmodels.User{}}
	terms, err := glossary.NewService(glossary.NewInMemoryStore())
	require.NoError(t, err)
	docs, err := docservice.New(docstore.New())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(accounts, terms, docs, logger), accounts, terms, docs
}

var admin = Admin{Email: "admin@civic.test", Password: "correct-horse", DisplayName: "Admin"}

func TestSeedAll(t *testing.T) {
	ctx := context.Background()
	seeder, accounts, terms, docs := newSeeder(t)

	require.NoError(t, seeder.SeedAll(ctx, admin))

	user := accounts.users[admin.Email]
	require.NotNil(t, user)
	assert.Equal(t, id.RoleAdmin, user.Role)

	all, err := terms.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(starterTerms))

	foia, err := terms.Lookup(ctx, "foia")
	require.NoError(t, err)
	assert.Equal(t, "FOIA", foia.Term)

	list, err := docs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Welcome", list[0].Title)
}

func TestSeedAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	seeder, accounts, terms, docs := newSeeder(t)

	require.NoError(t, seeder.SeedAll(ctx, admin))
	actor := accounts.users[admin.Email].ID

	// an edited definition survives reseeding
	_, _, err := terms.Upsert(ctx, actor, &glossary.UpsertRequest{Term: "Quorum", Definition: "Edited."})
	require.NoError(t, err)

	require.NoError(t, seeder.SeedAll(ctx, admin))

	assert.Len(t, accounts.users, 1)
	quorum, err := terms.Lookup(ctx, "quorum")
	require.NoError(t, err)
	assert.Equal(t, "Edited.", quorum.Definition)

	list, err := docs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
