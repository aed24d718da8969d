package tool

import (
	"context"

	"github.com/osbeck/labops/pkg/project"
)

type ListRolesTool struct {
	catalog *project.Catalog
}

func NewListRolesTool(catalog *project.Catalog) *ListRolesTool {
	return &ListRolesTool{catalog: catalog}
}

func (t *ListRolesTool) Name() string {
	return "list_roles"
}

func (t *ListRolesTool) Description() string {
	return "List the Ansible roles defined in the project"
}

func (t *ListRolesTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}

func (t *ListRolesTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	return t.catalog.ListRoles()
}
