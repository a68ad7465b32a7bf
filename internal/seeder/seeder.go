// Package seeder loads development data: an admin account, starter
// glossary terms and a welcome document. Every step is idempotent.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	authmodels "civic/internal/auth/models"
	docmodels "civic/internal/documents/models"
	"civic/internal/glossary"
	id "civic/pkg/domain"
)

// Accounts provisions users without failing on an existing email.
type Accounts interface {
	Provision(ctx context.Context, address, password, displayName string, role id.Role) (*authmodels.User, bool, error)
}

type Glossary interface {
	Lookup(ctx context.Context, slug string) (*glossary.Term, error)
	Upsert(ctx context.Context, actor id.UserID, req *glossary.UpsertRequest) (*glossary.Term, bool, error)
}

type Documents interface {
	List(ctx context.Context) ([]*docmodels.Document, error)
	Create(ctx context.Context, author id.UserID, req *docmodels.CreateRequest) (*docmodels.Document, error)
}

// Admin is the account the seeder provisions.
type Admin struct {
	Email       string
	Password    string
	DisplayName string
}

type Seeder struct {
	accounts  Accounts
	glossary  Glossary
	documents Documents
	logger    *slog.Logger
}

func New(accounts Accounts, terms Glossary, documents Documents, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{accounts: accounts, glossary: terms, documents: documents, logger: logger}
}

var starterTerms = []glossary.UpsertRequest{
	{Term: "FOIA", Definition: "Freedom of Information Act: the law that lets anyone request records from federal agencies."},
	{Term: "Public records request", Definition: "A written request asking a government body to release records it holds."},
	{Term: "Docket number", Definition: "The identifier a court assigns to a case so filings can be tracked."},
	{Term: "Quorum", Definition: "The minimum number of members who must take part for a vote to count."},
	{Term: "Proposal", Definition: "A change put to the membership for a vote during a fixed voting window."},
}

const welcomeContent = `Welcome to the shared workspace.

Lock a document before editing it, save as often as you like, and unlock it
when you are done so others can pick it up. Every save is kept in the
version history and any earlier version can be restored.`

func (s *Seeder) SeedAll(ctx context.Context, admin Admin) error {
	s.logger.InfoContext(ctx, "seeding development data")

	user, created, err := s.accounts.Provision(ctx, admin.Email, admin.Password, admin.DisplayName, id.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		s.logger.InfoContext(ctx, "seeded admin user", "user_id", user.ID.String())
	}

	terms, err := s.seedGlossary(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("seed glossary: %w", err)
	}
	welcomed, err := s.seedWelcomeDocument(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("seed welcome document: %w", err)
	}

	s.logger.InfoContext(ctx, "development data seeded",
		"admin_created", created,
		"glossary_terms_added", terms,
		"welcome_document_added", welcomed,
	)
	return nil
}

// seedGlossary adds missing starter terms and leaves edited ones alone.
func (s *Seeder) seedGlossary(ctx context.Context, actor id.UserID) (int, error) {
	added := 0
	for _, t := range starterTerms {
		req := t
		req.Normalize()
		if _, err := s.glossary.Lookup(ctx, req.Slug); err == nil {
			continue
		}
		if _, _, err := s.glossary.Upsert(ctx, actor, &req); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (s *Seeder) seedWelcomeDocument(ctx context.Context, author id.UserID) (bool, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return false, err
	}
	if len(docs) > 0 {
		return false, nil
	}
	req := &docmodels.CreateRequest{Title: "Welcome", Content: welcomeContent}
	if _, err := s.documents.Create(ctx, author, req); err != nil {
		return false, err
	}
	return true, nil
}
