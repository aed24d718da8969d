package project

import "path/filepath"

// Layout fixes where everything lives inside the automation project.
// All directory and file fields are paths relative to Root, so a layout
// can be pointed at any checkout. The zero value is not useful; start
// from DefaultLayout.
type Layout struct {
	Root         string   `yaml:"root"`
	AnsibleDir   string   `yaml:"ansibleDir"`
	RolesDir     string   `yaml:"rolesDir"`
	DocsDir      string   `yaml:"docsDir"`
	VarsDir      string   `yaml:"varsDir"`
	InventoryDir string   `yaml:"inventoryDir"`
	SampleFile   string   `yaml:"sampleFile"`
	TargetFile   string   `yaml:"targetFile"`
	BundledBin   string   `yaml:"bundledPlaybookBin"`
	AnsibleCfg   string   `yaml:"ansibleCfg"`
	DocsIgnore   []string `yaml:"docsIgnore"`
}

// DefaultLayout matches the directory conventions of the lab repos this
// tool drives.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:         root,
		AnsibleDir:   "ansible",
		RolesDir:     filepath.Join("ansible", "roles"),
		DocsDir:      "docs",
		VarsDir:      filepath.Join("ansible", "vars"),
		InventoryDir: filepath.Join("ansible", "inventory"),
		SampleFile:   "all.sample.yml",
		TargetFile:   "all.yml",
		BundledBin:   filepath.Join(".ansible", "bin", "ansible-playbook"),
		AnsibleCfg:   "ansible.cfg",
		DocsIgnore:   []string{"img/"},
	}
}
