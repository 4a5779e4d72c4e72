package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"finsight/features/chat"
	"finsight/features/ingest"
)

// Store persists embedded chunks in Weaviate and serves similarity
// search over them.
type Store struct {
	client    *weaviate.Client
	className string
}

func NewStore(client *weaviate.Client, className string) *Store {
	return &Store{client: client, className: className}
}

// UpsertPoints writes all points in one batch call. A point error
// inside an otherwise successful batch still fails the document.
func (s *Store) UpsertPoints(ctx context.Context, points []ingest.Point) error {
	objects := make([]*models.Object, 0, len(points))
	for _, p := range points {
		props, err := pointProperties(p)
		if err != nil {
			return fmt.Errorf("encode point %s: %w", p.ID, err)
		}
		objects = append(objects, &models.Object{
			Class:      s.className,
			ID:         strfmt.UUID(p.ID),
			Vector:     models.C11yVector(p.Vector),
			Properties: props,
		})
	}

	responses, err := s.client.Batch().ObjectsBatcher().
		WithObjects(objects...).
		Do(ctx)
	if err != nil {
		return err
	}

	for _, resp := range responses {
		if resp.Result != nil && resp.Result.Errors != nil && len(resp.Result.Errors.Error) > 0 {
			msgs := make([]string, 0, len(resp.Result.Errors.Error))
			for _, item := range resp.Result.Errors.Error {
				if item != nil {
					msgs = append(msgs, item.Message)
				}
			}
			return fmt.Errorf("batch object %s: %s", resp.ID, strings.Join(msgs, "; "))
		}
	}
	return nil
}

// Search returns the chunks nearest to vector that clear the certainty
// threshold, most similar first.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, certainty float64) ([]chat.SearchHit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithCertainty(float32(certainty))

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var hits []chat.SearchHit
	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if chunks, ok := data[s.className].([]interface{}); ok {
			for _, c := range chunks {
				props, ok := c.(map[string]interface{})
				if !ok {
					continue
				}

				hit := chat.SearchHit{}
				if text, ok := props["text"].(string); ok {
					hit.Text = text
				}
				if additional, ok := props["_additional"].(map[string]interface{}); ok {
					if score, ok := additional["certainty"].(float64); ok {
						hit.Score = score
					}
				}
				hits = append(hits, hit)
			}
		}
	}

	return hits, nil
}

func pointProperties(p ingest.Point) (map[string]interface{}, error) {
	tableJSON, err := json.Marshal(p.Document.Table)
	if err != nil {
		return nil, err
	}
	tableOriJSON, err := json.Marshal(p.Document.TableOri)
	if err != nil {
		return nil, err
	}
	annotationJSON, err := json.Marshal(p.Document.Annotation)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"text":           p.Text,
		"docId":          p.Document.ID,
		"filename":       p.Document.Filename,
		"preText":        strings.Join(p.Document.PreText, "\n"),
		"postText":       strings.Join(p.Document.PostText, "\n"),
		"tableJson":      string(tableJSON),
		"tableOriJson":   string(tableOriJSON),
		"annotationJson": string(annotationJSON),
	}, nil
}
