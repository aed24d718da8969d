package tool

import (
	"context"

	"github.com/osbeck/labops/pkg/project"
)

type ListInventoriesTool struct {
	catalog *project.Catalog
}

func NewListInventoriesTool(catalog *project.Catalog) *ListInventoriesTool {
	return &ListInventoriesTool{catalog: catalog}
}

func (t *ListInventoriesTool) Name() string {
	return "list_inventories"
}

func (t *ListInventoriesTool) Description() string {
	return "List inventory files as project-relative paths usable with run_playbook"
}

func (t *ListInventoriesTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}

func (t *ListInventoriesTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	return t.catalog.ListInventories()
}
