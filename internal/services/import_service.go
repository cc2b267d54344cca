package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/importer"
)

// Publisher is the slice of the AMQP client the import service needs.
type Publisher interface {
	PublishImportJob(ctx context.Context, path, sourceName string) error
	PublishImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error
}

// ImportService runs file imports and announces their outcome over AMQP.
// A nil publisher disables messaging; imports still work synchronously.
type ImportService struct {
	importer  *importer.Importer
	publisher Publisher
}

func NewImportService(imp *importer.Importer, publisher Publisher) *ImportService {
	return &ImportService{
		importer:  imp,
		publisher: publisher,
	}
}

// Import runs one file through the pipeline and publishes a completion
// notice. Publish failures are logged, not returned; the import result
// stands on its own.
func (s *ImportService) Import(ctx context.Context, path, sourceName string, opts importer.Options) (*importer.Result, error) {
	res, err := s.importer.Run(ctx, path, sourceName, opts)
	if res != nil {
		s.publishCompleted(ctx, res)
	}
	if err != nil {
		return res, fmt.Errorf("import %s: %w", path, err)
	}
	return res, nil
}

// EnqueueImport hands the file off to a worker instead of importing inline.
func (s *ImportService) EnqueueImport(ctx context.Context, path, sourceName string) error {
	if s.publisher == nil {
		return fmt.Errorf("async import requires AMQP, none configured")
	}
	if err := s.publisher.PublishImportJob(ctx, path, sourceName); err != nil {
		return fmt.Errorf("enqueue import: %w", err)
	}
	return nil
}

func (s *ImportService) publishCompleted(ctx context.Context, res *importer.Result) {
	if s.publisher == nil {
		return
	}

	session := res.Session
	msg := &amqp.ImportCompletedMessage{
		SessionID:  session.ID,
		SourceName: session.SourceName,
		Status:     string(session.Status),
		Imported:   session.ImportedCount,
		Duplicates: session.DuplicateCount,
		Errors:     session.ErrorCount,
		Timestamp:  session.StartedAt,
	}
	if !session.CompletedAt.IsZero() {
		msg.Timestamp = session.CompletedAt
	}

	if err := s.publisher.PublishImportCompleted(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish import completion",
			"sessionId", session.ID, "error", err)
		// Don't fail the import - the session is already persisted
	}
}
