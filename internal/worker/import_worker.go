package worker

import (
	"context"
	"fmt"
	"os"

	"bilancio/internal/amqp"
	"bilancio/internal/importer"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// ImportWorker consumes import job messages and runs them through the
// import pipeline. One worker processes one job at a time; the pipeline
// itself serializes writers, so extra parallelism buys nothing here.
type ImportWorker struct {
	imports *services.ImportService
	logger  *log.Logger
}

func NewImportWorker(imports *services.ImportService) *ImportWorker {
	return &ImportWorker{
		imports: imports,
		logger:  log.New(log.Config{Component: log.ComponentWorker}),
	}
}

// HandleImportJob processes a single import job message from AMQP.
// A missing file is a permanent failure: retrying cannot recover it,
// so the error is swallowed after logging and the message is acked.
func (w *ImportWorker) HandleImportJob(ctx context.Context, msg *amqp.ImportJobMessage) error {
	w.logger.InfoContext(ctx, "Processing import job",
		log.FieldPath, msg.Path,
		log.FieldSourceName, msg.SourceName)

	if _, err := os.Stat(msg.Path); os.IsNotExist(err) {
		w.logger.ErrorContext(ctx, "Import file does not exist, dropping job",
			log.FieldPath, msg.Path)
		return nil
	}

	res, err := w.imports.Import(ctx, msg.Path, msg.SourceName, importer.Options{})
	if err != nil {
		return fmt.Errorf("run import job: %w", err)
	}

	fields := log.NewFields().
		WithSession(res.Session.ID, res.Session.SourceName).
		WithImportCounts(res.Session.ImportedCount, res.Session.DuplicateCount, res.Session.ErrorCount)
	w.logger.InfoContext(ctx, "Import job finished", fields.ToSlice()...)

	return nil
}
