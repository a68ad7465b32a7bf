package models

import "time"

type RequestView struct {
	ID             string     `json:"id"`
	RequesterID    string     `json:"requester_id"`
	Agency         string     `json:"agency"`
	Subject        string     `json:"subject"`
	Description    string     `json:"description"`
	Status         Status     `json:"status"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	DueAt          *time.Time `json:"due_at"`
	ClosedAt       *time.Time `json:"closed_at"`
	Overdue        bool       `json:"overdue"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func NewRequestView(r *Request, now time.Time) RequestView {
	return RequestView{
		ID:             r.ID.String(),
		RequesterID:    r.RequesterID.String(),
		Agency:         r.Agency,
		Subject:        r.Subject,
		Description:    r.Description,
		Status:         r.Status,
		TrackingNumber: r.TrackingNumber,
		SubmittedAt:    r.SubmittedAt,
		DueAt:          r.DueAt,
		ClosedAt:       r.ClosedAt,
		Overdue:        r.IsOverdue(now),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type ResponseView struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func NewResponseView(r *Response) ResponseView {
	return ResponseView{
		ID:        r.ID.String(),
		RequestID: r.RequestID.String(),
		AuthorID:  r.AuthorID.String(),
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
}

type AttachmentView struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	FileName    string    `json:"file_name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewAttachmentView(a *Attachment) AttachmentView {
	return AttachmentView{
		ID:          a.ID.String(),
		RequestID:   a.RequestID.String(),
		FileName:    a.FileName,
		URL:         a.URL,
		ContentType: a.ContentType,
		UploadedBy:  a.UploadedBy.String(),
		CreatedAt:   a.CreatedAt,
	}
}
