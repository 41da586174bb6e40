package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

const timeLayout = time.RFC3339Nano

type DecisionRepository struct {
	db *sql.DB
}

func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// Record stores rec, assigning an ID and creation time when absent.
func (r *DecisionRepository) Record(ctx context.Context, rec *domain.DecisionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := WithRetry(ctx, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, `
			INSERT INTO decisions (id, session_id, tool_name, tool_use_id, decision, rule, reason, subject, cwd, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.ID, rec.SessionID, rec.ToolName, rec.ToolUseID, rec.Decision,
			rec.Rule, rec.Reason, rec.Subject, rec.Cwd,
			rec.CreatedAt.UTC().Format(timeLayout),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

func (r *DecisionRepository) List(ctx context.Context, limit int, onlyDenied bool) ([]*domain.DecisionRecord, error) {
	query := `
		SELECT id, session_id, tool_name, tool_use_id, decision, rule, reason, subject, cwd, created_at
		FROM decisions`
	var args []any
	if onlyDenied {
		query += ` WHERE decision = ?`
		args = append(args, domain.DecisionDeny)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.DecisionRecord
	for rows.Next() {
		var (
			rec       domain.DecisionRecord
			createdAt string
		)
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.ToolName, &rec.ToolUseID, &rec.Decision,
			&rec.Rule, &rec.Reason, &rec.Subject, &rec.Cwd, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decision time %q: %w", createdAt, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	return records, nil
}

func (r *DecisionRepository) Stats(ctx context.Context) (*domain.DecisionStats, error) {
	stats := &domain.DecisionStats{}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN decision = 'allow' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN decision = 'deny' THEN 1 ELSE 0 END), 0)
		FROM decisions
	`).Scan(&stats.Total, &stats.Allowed, &stats.Denied)
	if err != nil {
		return nil, fmt.Errorf("failed to count decisions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT rule, COUNT(*) AS n
		FROM decisions
		WHERE decision = 'deny'
		GROUP BY rule
		ORDER BY n DESC, rule ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count decisions by rule: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rc domain.RuleCount
		if err := rows.Scan(&rc.Rule, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rule count: %w", err)
		}
		stats.ByRule = append(stats.ByRule, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule counts: %w", err)
	}
	return stats, nil
}
