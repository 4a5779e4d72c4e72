package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finsight/internal/llm"
)

// Synthesizer turns a document's narrative text and table into a flat
// list of self-contained sentences. Tables are verbalized in a separate
// model call so each request stays a bounded, simpler task.
type Synthesizer struct {
	llm llm.Verbalizer
}

func NewSynthesizer(verbalizer llm.Verbalizer) *Synthesizer {
	return &Synthesizer{llm: verbalizer}
}

// Synthesize returns the chunk sentences for a document, split verbatim
// from the model response. Blank lines are preserved here; the pipeline
// filters them before embedding.
func (s *Synthesizer) Synthesize(ctx context.Context, doc FinancialDocument) ([]string, error) {
	pre := strings.Join(doc.PreText, "\n")
	post := strings.Join(doc.PostText, "\n")

	var contextParts []string
	if pre != "" {
		contextParts = append(contextParts, pre)
	}
	if post != "" {
		contextParts = append(contextParts, post)
	}
	tableContext := strings.Join(contextParts, "\n")

	var blocks []string
	if pre != "" {
		blocks = append(blocks, pre)
	}

	if len(doc.Table) > 0 {
		sentences, err := s.llm.VerbalizeTable(ctx, tableContext, doc.Table)
		if err != nil {
			// Degraded content beats a failed document: fall back to the
			// raw serialized table.
			slog.WarnContext(ctx, "table verbalization failed, using raw table text",
				"document_id", doc.ID, "error", err)
			sentences = []string{serializeTable(doc.Table)}
		}
		blocks = append(blocks, strings.Join(sentences, "\n"))
	}

	if post != "" {
		blocks = append(blocks, post)
	}

	chunks, err := s.llm.SynthesizeChunks(ctx, strings.Join(blocks, " "))
	if err != nil {
		return nil, fmt.Errorf("synthesize chunks: %w", err)
	}
	return chunks, nil
}

func serializeTable(table [][]string) string {
	rows := make([]string, 0, len(table))
	for _, row := range table {
		rows = append(rows, strings.Join(row, ","))
	}
	return strings.Join(rows, "\n")
}
