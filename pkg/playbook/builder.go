package playbook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/osbeck/labops/pkg/fault"
	"github.com/osbeck/labops/pkg/sandbox"
)

const defaultTimeout = time.Hour

// RunRequest names a playbook and its optional invocation flags. The
// playbook name resolves under the ansible directory, the inventory path
// under the project root; both through the sandbox.
type RunRequest struct {
	PlaybookName   string
	InventoryPath  string
	Limit          string
	Tags           string
	ExtraVarsJSON  string
	Check          bool
	TimeoutSeconds int
}

// CommandSpec is a fully assembled invocation: executable, ordered
// arguments, working directory, environment overlay, and timeout.
type CommandSpec struct {
	Path    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Builder turns run requests into command specs. Fields are plain
// configuration: AnsibleDir, BundledBin, and ConfigFile are paths
// relative to the project sandbox base; Fallback is the executable name
// looked up on PATH when the bundled one is absent.
type Builder struct {
	Project        *sandbox.Sandbox
	AnsibleDir     string
	BundledBin     string
	ConfigFile     string
	Fallback       string
	DefaultTimeout time.Duration
}

// Build validates the request and assembles the command. Argument order
// is stable: playbook path, -i, --limit, --tags, -e, --check. The
// extra-vars blob only needs to be well-formed JSON; it is passed
// through opaquely.
func (b *Builder) Build(req RunRequest) (*CommandSpec, error) {
	ansibleDir, err := sandbox.New(filepath.Join(b.Project.Base(), b.AnsibleDir))
	if err != nil {
		return nil, fault.NotFound("ansible directory not found under %s", b.Project.Base())
	}
	playbookPath, err := ansibleDir.Resolve(req.PlaybookName)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(playbookPath); err != nil || info.IsDir() {
		return nil, fault.NotFound("playbook not found: %s", playbookPath)
	}

	args := []string{playbookPath}

	if req.InventoryPath != "" {
		inventoryPath, err := b.Project.Resolve(req.InventoryPath)
		if err != nil {
			return nil, err
		}
		if info, err := os.Stat(inventoryPath); err != nil || info.IsDir() {
			return nil, fault.NotFound("inventory not found: %s", inventoryPath)
		}
		args = append(args, "-i", inventoryPath)
	}
	if req.Limit != "" {
		args = append(args, "--limit", req.Limit)
	}
	if req.Tags != "" {
		args = append(args, "--tags", req.Tags)
	}
	if req.ExtraVarsJSON != "" {
		if !json.Valid([]byte(req.ExtraVarsJSON)) {
			return nil, fault.Validation("extra vars are not valid JSON")
		}
		args = append(args, "-e", req.ExtraVarsJSON)
	}
	if req.Check {
		args = append(args, "--check")
	}

	timeout := b.DefaultTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	spec := &CommandSpec{
		Path:    b.executable(),
		Args:    args,
		Dir:     b.Project.Base(),
		Timeout: timeout,
	}
	if b.ConfigFile != "" {
		cfgPath := filepath.Join(b.Project.Base(), b.ConfigFile)
		if _, err := os.Stat(cfgPath); err == nil {
			spec.Env = append(spec.Env, "ANSIBLE_CONFIG="+cfgPath)
		}
	}
	return spec, nil
}

// executable prefers the project-bundled binary; otherwise the fallback
// name resolves through PATH when the command starts.
func (b *Builder) executable() string {
	if b.BundledBin != "" {
		bundled := filepath.Join(b.Project.Base(), b.BundledBin)
		if info, err := os.Stat(bundled); err == nil && !info.IsDir() {
			return bundled
		}
	}
	return b.Fallback
}
