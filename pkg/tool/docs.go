package tool

import (
	"context"

	"github.com/osbeck/labops/pkg/project"
)

type ListDocsTool struct {
	catalog *project.Catalog
}

func NewListDocsTool(catalog *project.Catalog) *ListDocsTool {
	return &ListDocsTool{catalog: catalog}
}

func (t *ListDocsTool) Name() string {
	return "list_docs"
}

func (t *ListDocsTool) Description() string {
	return "List the project's markdown documentation pages with their titles"
}

func (t *ListDocsTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}

func (t *ListDocsTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	return t.catalog.ListDocs()
}
