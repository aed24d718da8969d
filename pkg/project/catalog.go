package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/osbeck/labops/pkg/fault"
	"github.com/osbeck/labops/pkg/sandbox"
)

// Catalog answers read-only questions about an automation project:
// which playbooks, roles, docs and inventories it ships, and the
// contents of individual text files. Every path it hands out has been
// resolved through the project sandbox.
type Catalog struct {
	layout Layout
	sb     *sandbox.Sandbox
}

// NewCatalog builds a catalog rooted at layout.Root. The root must
// exist; everything below it may be absent and simply lists as empty.
func NewCatalog(layout Layout) (*Catalog, error) {
	sb, err := sandbox.New(layout.Root)
	if err != nil {
		return nil, fmt.Errorf("project root %s: %w", layout.Root, err)
	}
	return &Catalog{layout: layout, sb: sb}, nil
}

// Sandbox exposes the root sandbox so writers and runners can share it.
func (c *Catalog) Sandbox() *sandbox.Sandbox {
	return c.sb
}

// Layout returns the layout the catalog was built from, with Root
// replaced by its canonical form.
func (c *Catalog) Layout() Layout {
	l := c.layout
	l.Root = c.sb.Base()
	return l
}

// PlaybookInfo describes one runnable playbook.
type PlaybookInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListPlaybooks returns the YAML playbooks directly under the ansible
// directory, sorted by file name.
func (c *Catalog) ListPlaybooks() ([]PlaybookInfo, error) {
	dir := filepath.Join(c.sb.Base(), c.layout.AnsibleDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []PlaybookInfo{}, nil
		}
		return nil, fmt.Errorf("list playbooks: %w", err)
	}
	playbooks := []PlaybookInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		playbooks = append(playbooks, PlaybookInfo{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	return playbooks, nil
}

// ListRoles returns the role names under the roles directory, sorted.
func (c *Catalog) ListRoles() ([]string, error) {
	dir := filepath.Join(c.sb.Base(), c.layout.RolesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		roles = append(roles, entry.Name())
	}
	return roles, nil
}

// DocInfo describes one documentation page.
type DocInfo struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

// ListDocs walks the docs tree for markdown files, skipping anything
// matched by the layout's ignore patterns (gitignore syntax). The title
// is the first heading of the document, empty when it has none.
func (c *Catalog) ListDocs() ([]DocInfo, error) {
	root := filepath.Join(c.sb.Base(), c.layout.DocsDir)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []DocInfo{}, nil
	}
	matcher := gitignore.CompileIgnoreLines(c.layout.DocsIgnore...)
	docs := []DocInfo{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.MatchesPath(rel) {
			return nil
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, DocInfo{Path: path, Title: docTitle(source)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	return docs, nil
}

// ListInventories returns inventory files as paths relative to the
// project root, sorted, so they can be passed straight back to a run.
func (c *Catalog) ListInventories() ([]string, error) {
	dir := filepath.Join(c.sb.Base(), c.layout.InventoryDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list inventories: %w", err)
	}
	inventories := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		inventories = append(inventories, filepath.Join(c.layout.InventoryDir, entry.Name()))
	}
	return inventories, nil
}

// ReadTextFile returns the contents of a UTF-8 text file inside the
// project. Relative paths resolve against the project root.
func (c *Catalog) ReadTextFile(path string) (string, error) {
	resolved, err := c.sb.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fault.NotFound("file not found: %s", resolved)
		}
		return "", fmt.Errorf("stat %s: %w", resolved, err)
	}
	if info.IsDir() {
		return "", fault.NotFound("not a file: %s", resolved)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", resolved, err)
	}
	if !utf8.Valid(data) {
		return "", fault.Encoding("not valid UTF-8 text: %s", resolved)
	}
	return string(data), nil
}
