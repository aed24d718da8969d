package tool

import (
	"context"

	"github.com/osbeck/labops/pkg/playbook"
)

type RunPlaybookTool struct {
	builder *playbook.Builder
	runner  *playbook.Runner
}

func NewRunPlaybookTool(builder *playbook.Builder, runner *playbook.Runner) *RunPlaybookTool {
	return &RunPlaybookTool{builder: builder, runner: runner}
}

func (t *RunPlaybookTool) Name() string {
	return "run_playbook"
}

func (t *RunPlaybookTool) Description() string {
	return "Run an Ansible playbook by name and return its exit code and captured output"
}

func (t *RunPlaybookTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"playbook_name": map[string]string{
				"type":        "string",
				"description": "Playbook file name under the ansible directory, e.g. sno-deploy.yml",
			},
			"inventory_relpath": map[string]string{
				"type":        "string",
				"description": "Optional inventory path relative to the project root",
			},
			"limit": map[string]string{
				"type":        "string",
				"description": "Optional Ansible --limit expression",
			},
			"tags": map[string]string{
				"type":        "string",
				"description": "Optional Ansible --tags list",
			},
			"extra_vars_json": map[string]string{
				"type":        "string",
				"description": "JSON object of extra vars passed with -e",
			},
			"check": map[string]string{
				"type":        "boolean",
				"description": "Run in check mode (--check)",
			},
			"timeout_seconds": map[string]string{
				"type":        "integer",
				"description": "Process timeout in seconds",
			},
		},
		"required":             []string{"playbook_name"},
		"additionalProperties": false,
	}
}

func (t *RunPlaybookTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	req := playbook.RunRequest{
		PlaybookName:  stringArg(input, "playbook_name"),
		InventoryPath: stringArg(input, "inventory_relpath"),
		Limit:         stringArg(input, "limit"),
		Tags:          stringArg(input, "tags"),
		ExtraVarsJSON: stringArg(input, "extra_vars_json"),
		Check:         boolArg(input, "check"),
	}
	if seconds, ok := intArg(input, "timeout_seconds"); ok {
		req.TimeoutSeconds = seconds
	}

	spec, err := t.builder.Build(req)
	if err != nil {
		return nil, err
	}
	return t.runner.Run(ctx, spec)
}
