package vars

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/osbeck/labops/pkg/fault"
	"github.com/osbeck/labops/pkg/sandbox"
)

// Writer materializes the cluster vars file: it reads the sample fresh,
// renders it, and replaces the target wholesale. All paths resolve
// through the sandbox; a failure anywhere leaves the target untouched.
type Writer struct {
	engine  *Engine
	sb      *sandbox.Sandbox
	varsDir string
	sample  string
	target  string
}

// NewWriter builds a writer for the vars directory (a path relative to
// the sandbox base) holding the named sample and target files.
func NewWriter(engine *Engine, sb *sandbox.Sandbox, varsDir, sample, target string) *Writer {
	return &Writer{engine: engine, sb: sb, varsDir: varsDir, sample: sample, target: target}
}

// WriteResult reports the written path and the per-key outcome.
type WriteResult struct {
	Written string   `json:"written"`
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// Create renders the vars file for req and writes it, overwriting any
// previous target. Validation happens before any filesystem access.
func (w *Writer) Create(req ClusterRequest) (*WriteResult, error) {
	rules, err := BuildClusterRules(req)
	if err != nil {
		return nil, err
	}
	var overrides []Override
	if req.ExtraVarsJSON != "" {
		overrides, err = DecodeOverrides(req.ExtraVarsJSON)
		if err != nil {
			return nil, err
		}
	}

	dir, err := w.sb.Resolve(w.varsDir)
	if err != nil {
		return nil, err
	}
	samplePath, err := w.sb.Resolve(filepath.Join(w.varsDir, w.sample))
	if err != nil {
		return nil, err
	}
	targetPath, err := w.sb.Resolve(filepath.Join(w.varsDir, w.target))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vars directory: %w", err)
	}
	data, err := os.ReadFile(samplePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.NotFound("sample vars file not found: %s", samplePath)
		}
		return nil, fmt.Errorf("read sample vars file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fault.Encoding("sample vars file is not valid UTF-8: %s", samplePath)
	}

	text, report, err := w.engine.Render(string(data), rules, overrides)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(targetPath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("write vars file: %w", err)
	}
	return &WriteResult{Written: targetPath, Updated: report.Updated, Skipped: report.Skipped}, nil
}
