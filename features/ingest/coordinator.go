package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"finsight/features/batch"
)

// DocumentIngestor processes one document end to end.
type DocumentIngestor interface {
	IngestOne(ctx context.Context, doc FinancialDocument) error
}

// Coordinator accepts a batch of documents, records its progress, and
// fans the work out over a bounded goroutine pool. A document failure
// is recorded against the batch and the remaining documents continue;
// the batch only ends up failed when the run itself breaks down.
type Coordinator struct {
	ingestor DocumentIngestor
	progress batch.Store
	pool     *ants.Pool
}

func NewCoordinator(ingestor DocumentIngestor, progress batch.Store, pool *ants.Pool) *Coordinator {
	return &Coordinator{
		ingestor: ingestor,
		progress: progress,
		pool:     pool,
	}
}

// Submit registers the batch and starts processing it in the
// background. The returned id can be polled for progress immediately.
func (c *Coordinator) Submit(ctx context.Context, docs []FinancialDocument) (string, error) {
	if len(docs) == 0 {
		return "", ErrEmptyBatch
	}

	batchID := uuid.NewString()
	record := &batch.Progress{
		BatchID: batchID,
		Total:   len(docs),
		Status:  batch.StatusInProgress,
	}
	if err := c.progress.Create(ctx, record); err != nil {
		return "", fmt.Errorf("create batch %s: %w", batchID, err)
	}

	// The request context ends when the handler returns; the batch
	// keeps its values (correlation id) but outlives the request.
	go c.run(context.WithoutCancel(ctx), batchID, docs)

	slog.InfoContext(ctx, "batch accepted", "batch_id", batchID, "total", len(docs))
	return batchID, nil
}

func (c *Coordinator) run(ctx context.Context, batchID string, docs []FinancialDocument) {
	var (
		wg        sync.WaitGroup
		submitErr error
	)

	for _, doc := range docs {
		doc := doc
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			c.processOne(ctx, batchID, doc)
		})
		if err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit document %s: %w", doc.ID, err)
			slog.ErrorContext(ctx, "pool submit failed", "batch_id", batchID, "document_id", doc.ID, "error", err)
			break
		}
	}

	wg.Wait()

	if submitErr != nil {
		if err := c.progress.Finalize(ctx, batchID, batch.StatusFailed, submitErr.Error()); err != nil {
			slog.ErrorContext(ctx, "finalize batch failed", "batch_id", batchID, "error", err)
		}
		return
	}

	if err := c.progress.Finalize(ctx, batchID, batch.StatusCompleted, ""); err != nil {
		slog.ErrorContext(ctx, "finalize batch failed", "batch_id", batchID, "error", err)
		return
	}

	slog.InfoContext(ctx, "batch completed", "batch_id", batchID, "total", len(docs))
}

func (c *Coordinator) processOne(ctx context.Context, batchID string, doc FinancialDocument) {
	if err := c.progress.TaskStarted(ctx, batchID); err != nil {
		slog.ErrorContext(ctx, "record task start failed", "batch_id", batchID, "document_id", doc.ID, "error", err)
	}

	var failure *batch.Failure
	if err := c.ingestor.IngestOne(ctx, doc); err != nil {
		failure = &batch.Failure{DocumentID: doc.ID, Error: err.Error()}
		slog.ErrorContext(ctx, "document failed", "batch_id", batchID, "document_id", doc.ID, "error", err)
	}

	progress, err := c.progress.TaskFinished(ctx, batchID, failure)
	if err != nil {
		slog.ErrorContext(ctx, "record task finish failed", "batch_id", batchID, "document_id", doc.ID, "error", err)
		return
	}

	if progress.Processed%10 == 0 || progress.Processed == progress.Total {
		slog.InfoContext(ctx, "batch progress",
			"batch_id", batchID,
			"processed", progress.Processed,
			"total", progress.Total,
			"percent_complete", progress.PercentComplete,
		)
	}
}
