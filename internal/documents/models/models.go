// Package models holds the document editor's domain types. A document is
// edited under an advisory lock recorded on the row itself; every save
// appends an immutable version.
package models

import (
	"time"

	id "civic/pkg/domain"
)

type Document struct {
	ID        id.DocumentID
	Title     string
	Content   string
	Version   int
	LockedBy  *id.UserID
	LockedAt  *time.Time
	CreatedBy id.UserID
	UpdatedBy id.UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Document) IsLocked() bool {
	return d.LockedBy != nil
}

func (d *Document) IsLockedBy(userID id.UserID) bool {
	return d.LockedBy != nil && *d.LockedBy == userID
}

// AcquireLock records userID as the holder. It reports false when another
// user holds the lock. Re-acquiring one's own lock keeps the original time.
func (d *Document) AcquireLock(userID id.UserID, at time.Time) bool {
	if d.IsLocked() {
		return d.IsLockedBy(userID)
	}
	holder := userID
	d.LockedBy = &holder
	d.LockedAt = &at
	return true
}

func (d *Document) ReleaseLock() {
	d.LockedBy = nil
	d.LockedAt = nil
}

// Apply writes new content as the next version and returns its history row.
func (d *Document) Apply(title, content string, by id.UserID, at time.Time) *Version {
	d.Title = title
	d.Content = content
	d.Version++
	d.UpdatedBy = by
	d.UpdatedAt = at
	return d.Snapshot()
}

// Snapshot returns the history row for the current version.
func (d *Document) Snapshot() *Version {
	return &Version{
		DocumentID: d.ID,
		Version:    d.Version,
		Title:      d.Title,
		Content:    d.Content,
		CreatedBy:  d.UpdatedBy,
		CreatedAt:  d.UpdatedAt,
	}
}

// Version is one append-only history row.
type Version struct {
	DocumentID id.DocumentID
	Version    int
	Title      string
	Content    string
	CreatedBy  id.UserID
	CreatedAt  time.Time
}
