package tool

import (
	"context"

	"github.com/osbeck/labops/pkg/project"
)

type ReadTextFileTool struct {
	catalog *project.Catalog
}

func NewReadTextFileTool(catalog *project.Catalog) *ReadTextFileTool {
	return &ReadTextFileTool{catalog: catalog}
}

func (t *ReadTextFileTool) Name() string {
	return "read_text_file"
}

func (t *ReadTextFileTool) Description() string {
	return "Read a UTF-8 text file from within the project by relative path"
}

func (t *ReadTextFileTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"relative_path": map[string]string{
				"type":        "string",
				"description": "Path relative to the project root, forward slashes",
			},
		},
		"required":             []string{"relative_path"},
		"additionalProperties": false,
	}
}

func (t *ReadTextFileTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	return t.catalog.ReadTextFile(stringArg(input, "relative_path"))
}
