// Package meili indexes guard decisions into MeiliSearch so they can be
// searched and faceted alongside other hook telemetry.
package meili

import (
	"context"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

// DefaultIndex is the index name used when none is configured.
const DefaultIndex = "hookguard-decisions"

// Document is the indexed form of a decision.
type Document struct {
	ID            string `json:"id"`
	SessionID     string `json:"session_id"`
	ToolName      string `json:"tool_name"`
	ToolUseID     string `json:"tool_use_id,omitempty"`
	Decision      string `json:"decision"`
	Rule          string `json:"rule,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Cwd           string `json:"cwd,omitempty"`
	Timestamp     string `json:"timestamp"`
	TimestampUnix int64  `json:"timestamp_unix"`
}

// DecisionIndex writes decisions to a MeiliSearch index.
type DecisionIndex struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
	uid    string
}

// NewDecisionIndex returns an index writer. It performs no network calls;
// use Setup once to create the index and its settings.
func NewDecisionIndex(endpoint, apiKey, indexName string) *DecisionIndex {
	if indexName == "" {
		indexName = DefaultIndex
	}
	client := meilisearch.New(endpoint, meilisearch.WithAPIKey(apiKey))
	return &DecisionIndex{
		client: client,
		index:  client.Index(indexName),
		uid:    indexName,
	}
}

// Index enqueues rec as a document. Indexing completes asynchronously on the
// server; only enqueue failures are reported.
func (d *DecisionIndex) Index(ctx context.Context, rec *domain.DecisionRecord) error {
	pk := "id"
	doc := ToDocument(rec)
	_, err := d.index.AddDocumentsWithContext(ctx, []Document{doc}, &meilisearch.DocumentOptions{
		PrimaryKey: &pk,
	})
	if err != nil {
		return fmt.Errorf("index decision %s: %w", doc.ID, err)
	}
	return nil
}

// Setup creates the index and configures searchable, filterable and
// sortable attributes, waiting for every settings task.
func (d *DecisionIndex) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.client.IsHealthy() {
		return fmt.Errorf("meilisearch is not healthy")
	}

	if _, err := d.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        d.uid,
		PrimaryKey: "id",
	}); err != nil {
		return fmt.Errorf("create index %q: %w", d.uid, err)
	}

	taskInfo, err := d.index.UpdateSearchableAttributes(&[]string{
		"subject",
		"reason",
		"tool_name",
		"session_id",
	})
	if err != nil {
		return fmt.Errorf("update searchable attributes: %w", err)
	}
	if err := d.waitForTask(taskInfo, "searchable attributes"); err != nil {
		return err
	}

	// FilterableAttributes uses []interface{} per the SDK's API.
	filterAttrs := []interface{}{
		"decision",
		"rule",
		"tool_name",
		"session_id",
		"cwd",
		"timestamp_unix",
	}
	taskInfo, err = d.index.UpdateFilterableAttributes(&filterAttrs)
	if err != nil {
		return fmt.Errorf("update filterable attributes: %w", err)
	}
	if err := d.waitForTask(taskInfo, "filterable attributes"); err != nil {
		return err
	}

	taskInfo, err = d.index.UpdateSortableAttributes(&[]string{"timestamp_unix"})
	if err != nil {
		return fmt.Errorf("update sortable attributes: %w", err)
	}
	return d.waitForTask(taskInfo, "sortable attributes")
}

func (d *DecisionIndex) waitForTask(taskInfo *meilisearch.TaskInfo, name string) error {
	task, err := d.client.WaitForTask(taskInfo.TaskUID, 500*time.Millisecond)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", name, err)
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("%s task failed: %s", name, task.Error.Message)
	}
	return nil
}

// ToDocument converts a decision to its indexed form.
func ToDocument(rec *domain.DecisionRecord) Document {
	ts := rec.CreatedAt.UTC()
	return Document{
		ID:            rec.ID,
		SessionID:     rec.SessionID,
		ToolName:      rec.ToolName,
		ToolUseID:     rec.ToolUseID,
		Decision:      rec.Decision,
		Rule:          rec.Rule,
		Reason:        rec.Reason,
		Subject:       rec.Subject,
		Cwd:           rec.Cwd,
		Timestamp:     ts.Format(time.RFC3339Nano),
		TimestampUnix: ts.Unix(),
	}
}
