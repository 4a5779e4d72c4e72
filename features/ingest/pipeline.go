package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"finsight/internal/llm"
)

// PointStore is the vector-index write capability consumed by the
// pipeline.
type PointStore interface {
	// UpsertPoints writes all points in a single batched call.
	UpsertPoints(ctx context.Context, points []Point) error
}

// Pipeline ingests a single document: synthesize chunks, embed each
// non-blank chunk, then upsert all resulting points in one write. The
// upsert is the only write, made after every vector is ready, so a
// failing document never leaves a partial point set behind.
type Pipeline struct {
	synthesizer *Synthesizer
	embedder    llm.Embedder
	store       PointStore
}

func NewPipeline(synthesizer *Synthesizer, embedder llm.Embedder, store PointStore) *Pipeline {
	return &Pipeline{
		synthesizer: synthesizer,
		embedder:    embedder,
		store:       store,
	}
}

func (p *Pipeline) IngestOne(ctx context.Context, doc FinancialDocument) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("ingest document: %w", err)
	}

	chunks, err := p.synthesizer.Synthesize(ctx, doc)
	if err != nil {
		return fmt.Errorf("ingest document %s: %w", doc.ID, err)
	}

	var points []Point
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		vector, err := p.embedder.Embed(ctx, chunk)
		if err != nil {
			return fmt.Errorf("ingest document %s: embed chunk: %w", doc.ID, err)
		}

		points = append(points, Point{
			ID:       uuid.NewString(),
			Vector:   vector,
			Document: doc,
			Text:     chunk,
		})
	}

	if len(points) == 0 {
		slog.InfoContext(ctx, "document produced no storable chunks", "document_id", doc.ID)
		return nil
	}

	if err := p.store.UpsertPoints(ctx, points); err != nil {
		return fmt.Errorf("ingest document %s: upsert points: %w", doc.ID, err)
	}

	slog.InfoContext(ctx, "document ingested", "document_id", doc.ID, "points", len(points))
	return nil
}
