package realtime

import (
	"context"
	"log/slog"

	"civic/pkg/platform/circuit"
)

// FallbackPublisher sends changes to primary (Kafka) and delivers any
// change primary rejects to fallback (the local Hub), so subscribers on
// this instance still see it. The breaker only decides what gets logged:
// each failure while closed, one error when it opens, nothing while open.
type FallbackPublisher struct {
	primary  Publisher
	fallback Publisher
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackPublisher(primary, fallback Publisher, breaker *circuit.Breaker, logger *slog.Logger) *FallbackPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackPublisher{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (p *FallbackPublisher) Publish(ctx context.Context, change Change) error {
	err := p.primary.Publish(ctx, change)
	if err == nil {
		if p.breaker.Success() {
			p.logger.InfoContext(ctx, "change feed recovered", "breaker", p.breaker.Name())
		}
		return nil
	}

	open, opened := p.breaker.Failure()
	switch {
	case opened:
		p.logger.ErrorContext(ctx, "change feed unavailable, delivering locally",
			"breaker", p.breaker.Name(),
			"error", err,
		)
	case !open:
		p.logger.WarnContext(ctx, "change feed publish failed, delivering locally",
			"table", change.Table,
			"error", err,
		)
	}
	return p.fallback.Publish(ctx, change)
}
