package ports

import (
	"context"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

// MetricsExporter exports guard decision metrics to an external observability system.
type MetricsExporter interface {
	// RecordDecision counts a single guard decision.
	RecordDecision(ctx context.Context, rec *domain.DecisionRecord) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
