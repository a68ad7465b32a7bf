package session

import (
	"sort"

	"civic/internal/auth/models"
)

func sortNewestFirst(sessions []*models.Session) {
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
}
