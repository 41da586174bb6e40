package ports

import (
	"context"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

// DecisionIndex ships decisions to an external search engine.
type DecisionIndex interface {
	Index(ctx context.Context, rec *domain.DecisionRecord) error
}
