package service

import (
	"context"
	"errors"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

// ListUsers returns every account, for the admin console.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	out := make([]models.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, models.NewUserView(u))
	}
	return out, nil
}

// SetRole changes target's role. Admins cannot change their own role, which
// keeps at least one admin in place.
func (s *Service) SetRole(ctx context.Context, actor, target id.UserID, role id.Role) (*models.UserView, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of member, editor, admin")
	}
	if actor == target {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot change your own role")
	}

	user, err := s.users.UpdateRole(ctx, target, role, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}

	s.logAudit(ctx, eventRoleChanged,
		"actor_id", actor.String(),
		"user_id", target.String(),
		"role", role.String(),
	)
	view := models.NewUserView(user)
	return &view, nil
}
