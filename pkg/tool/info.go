package tool

import (
	"context"
	"path/filepath"

	"github.com/osbeck/labops/pkg/project"
	"github.com/osbeck/labops/pkg/system"
	"github.com/osbeck/labops/pkg/version"
)

type ProjectInfoTool struct {
	catalog  *project.Catalog
	fallback string
}

func NewProjectInfoTool(catalog *project.Catalog, fallback string) *ProjectInfoTool {
	return &ProjectInfoTool{catalog: catalog, fallback: fallback}
}

func (t *ProjectInfoTool) Name() string {
	return "project_info"
}

func (t *ProjectInfoTool) Description() string {
	return "Describe the project layout, the host, and the ansible-playbook binary a run would use"
}

func (t *ProjectInfoTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}

// Info is the project_info result.
type Info struct {
	Project project.Layout  `json:"project"`
	Host    *system.Profile `json:"host"`
	Server  string          `json:"server"`
}

func (t *ProjectInfoTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	layout := t.catalog.Layout()
	bundled := filepath.Join(layout.Root, layout.BundledBin)
	profile, err := system.Detect(bundled, t.fallback)
	if err != nil {
		return nil, err
	}
	return &Info{Project: layout, Host: profile, Server: version.String()}, nil
}
