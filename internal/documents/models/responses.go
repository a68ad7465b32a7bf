package models

import (
	"time"
)

type DocumentView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Version   int        `json:"version"`
	LockedBy  *string    `json:"locked_by"`
	LockedAt  *time.Time `json:"locked_at"`
	CreatedBy string     `json:"created_by"`
	UpdatedBy string     `json:"updated_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewDocumentView(d *Document) DocumentView {
	view := DocumentView{
		ID:        d.ID.String(),
		Title:     d.Title,
		Content:   d.Content,
		Version:   d.Version,
		LockedAt:  d.LockedAt,
		CreatedBy: d.CreatedBy.String(),
		UpdatedBy: d.UpdatedBy.String(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.LockedBy != nil {
		holder := d.LockedBy.String()
		view.LockedBy = &holder
	}
	return view
}

// DocumentSummary is the list shape; it omits content.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   int       `json:"version"`
	LockedBy  *string   `json:"locked_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDocumentSummary(d *Document) DocumentSummary {
	s := DocumentSummary{
		ID:        d.ID.String(),
		Title:     d.Title,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
	if d.LockedBy != nil {
		holder := d.LockedBy.String()
		s.LockedBy = &holder
	}
	return s
}

type VersionView struct {
	Version   int       `json:"version"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVersionView renders a history row; list responses pass withContent=false.
func NewVersionView(v *Version, withContent bool) VersionView {
	view := VersionView{
		Version:   v.Version,
		Title:     v.Title,
		CreatedBy: v.CreatedBy.String(),
		CreatedAt: v.CreatedAt,
	}
	if withContent {
		view.Content = v.Content
	}
	return view
}
