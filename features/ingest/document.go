package ingest

import (
	"errors"
	"strings"
)

var (
	ErrMissingID  = errors.New("document missing id")
	ErrEmptyBatch = errors.New("empty document batch")
)

// FinancialDocument is the ingestion input: narrative text around an
// optional table, already extracted upstream. Unknown JSON fields are
// ignored so the schema stays forward-compatible.
type FinancialDocument struct {
	PreText  []string   `json:"pre_text,omitempty"`
	PostText []string   `json:"post_text,omitempty"`
	Table    [][]string `json:"table,omitempty"`

	// TableOri is the unprocessed table form. It is carried through to
	// the stored payload untouched and never used by the pipeline.
	TableOri [][]string `json:"table_ori,omitempty"`

	Filename   string         `json:"filename,omitempty"`
	ID         string         `json:"id"`
	Annotation map[string]any `json:"annotation,omitempty"`
}

func (d FinancialDocument) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrMissingID
	}
	return nil
}

// Point is the unit persisted in the vector index: one embedded chunk
// with the full source document as payload.
type Point struct {
	ID       string
	Vector   []float32
	Document FinancialDocument
	Text     string
}
