package ports

import (
	"context"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

// DecisionRepository persists guard decisions for later auditing.
type DecisionRepository interface {
	Record(ctx context.Context, rec *domain.DecisionRecord) error
	// List returns the most recent decisions first. A limit of zero or less
	// returns every decision.
	List(ctx context.Context, limit int, onlyDenied bool) ([]*domain.DecisionRecord, error)
	Stats(ctx context.Context) (*domain.DecisionStats, error)
}
