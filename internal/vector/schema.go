package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the chunk class if it is missing, or adds any
// missing properties to an existing one. Vectors are supplied by the
// ingestion pipeline, so the class carries no vectorizer.
func EnsureSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "text",
			DataType: []string{"text"},
		},
		{
			Name:     "docId",
			DataType: []string{"string"}, // exact match lookups
		},
		{
			Name:     "filename",
			DataType: []string{"string"},
		},
		{
			Name:     "preText",
			DataType: []string{"text"},
		},
		{
			Name:     "postText",
			DataType: []string{"text"},
		},
		{
			Name:     "tableJson",
			DataType: []string{"text"},
		},
		{
			Name:     "tableOriJson",
			DataType: []string{"text"},
		},
		{
			Name:     "annotationJson",
			DataType: []string{"text"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "An embedded chunk of a financial document",
			Vectorizer:  "none",
			VectorIndexConfig: map[string]interface{}{
				"distance": "cosine",
			},
			Properties: properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}

	return nil
}
