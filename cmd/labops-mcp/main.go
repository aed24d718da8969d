package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/osbeck/labops/pkg/config"
	"github.com/osbeck/labops/pkg/mcp"
	"github.com/osbeck/labops/pkg/playbook"
	"github.com/osbeck/labops/pkg/project"
	"github.com/osbeck/labops/pkg/runtime/logging"
	"github.com/osbeck/labops/pkg/tool"
	"github.com/osbeck/labops/pkg/vars"
)

var cfgFile string

func main() {
	_ = godotenv.Load()

	pflag.StringVar(&cfgFile, "config", "", "config file (default: ~/.labops/config.yaml)")
	pflag.Parse()

	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	catalog, err := project.NewCatalog(cfg.Project)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	layout := catalog.Layout()

	engine := vars.NewEngine(cfg.Render.Anchor, cfg.Render.QuotedKeys)
	writer := vars.NewWriter(engine, catalog.Sandbox(), layout.VarsDir, layout.SampleFile, layout.TargetFile)
	builder := &playbook.Builder{
		Project:        catalog.Sandbox(),
		AnsibleDir:     layout.AnsibleDir,
		BundledBin:     layout.BundledBin,
		ConfigFile:     layout.AnsibleCfg,
		Fallback:       "ansible-playbook",
		DefaultTimeout: cfg.Run.Timeout(),
	}
	runner := &playbook.Runner{MaxOutput: cfg.Run.MaxOutputBytes}

	registry, err := tool.NewRegistry(
		tool.NewListPlaybooksTool(catalog),
		tool.NewListRolesTool(catalog),
		tool.NewListDocsTool(catalog),
		tool.NewListInventoriesTool(catalog),
		tool.NewReadTextFileTool(catalog),
		tool.NewRunPlaybookTool(builder, runner),
		tool.NewCreateVarsFileTool(writer),
		tool.NewProjectInfoTool(catalog, "ansible-playbook"),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := registry.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	server := mcp.NewServer(registry)
	server.SetLogger(logging.New(cfg.LogLevel, os.Getenv("LABOPS_LOG_FORMAT")))

	if err := server.ServeStdio(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
