// Package tracer is a small tracing facade so services can emit spans
// without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: tests and local runs
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the document editor.
const (
	SpanDocumentCreate  = "documents.create"
	SpanDocumentLock    = "documents.lock"
	SpanDocumentSave    = "documents.save"
	SpanDocumentUnlock  = "documents.unlock"
	SpanDocumentRestore = "documents.restore"
)

const SpanDashboardBuild = "dashboard.build"

// Attribute keys.
const (
	AttrDocumentID = "document.id"
	AttrVersion    = "document.version"
	AttrBase       = "document.base_version"
	AttrForced     = "document.forced"
	AttrRole       = "user.role"
	AttrSection    = "dashboard.section"
)

// Event names.
const (
	EventLockContended = "lock.contended"
	EventStaleBase     = "save.stale_base"
)
