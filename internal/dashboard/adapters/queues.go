// Package adapters connects dashboard ports to the owning services.
package adapters

import "context"

type incidentCounter interface {
	CountNew(ctx context.Context) (int, error)
}

type submissionCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// Queues satisfies ports.Queues with the incident and submission services.
type Queues struct {
	incidents   incidentCounter
	submissions submissionCounter
}

func NewQueues(incidents incidentCounter, submissions submissionCounter) *Queues {
	return &Queues{incidents: incidents, submissions: submissions}
}

func (q *Queues) CountNewIncidents(ctx context.Context) (int, error) {
	return q.incidents.CountNew(ctx)
}

func (q *Queues) CountPendingSubmissions(ctx context.Context) (int, error) {
	return q.submissions.CountPending(ctx)
}
