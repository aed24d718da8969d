package tool

import (
	"context"

	"github.com/osbeck/labops/pkg/project"
)

type ListPlaybooksTool struct {
	catalog *project.Catalog
}

func NewListPlaybooksTool(catalog *project.Catalog) *ListPlaybooksTool {
	return &ListPlaybooksTool{catalog: catalog}
}

func (t *ListPlaybooksTool) Name() string {
	return "list_playbooks"
}

func (t *ListPlaybooksTool) Description() string {
	return "List the Ansible playbooks available at the top level of the project's ansible directory"
}

func (t *ListPlaybooksTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}

func (t *ListPlaybooksTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	return t.catalog.ListPlaybooks()
}
