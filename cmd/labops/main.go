package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/osbeck/labops/pkg/config"
	"github.com/osbeck/labops/pkg/mcp"
	"github.com/osbeck/labops/pkg/playbook"
	"github.com/osbeck/labops/pkg/project"
	"github.com/osbeck/labops/pkg/runtime/logging"
	"github.com/osbeck/labops/pkg/system"
	"github.com/osbeck/labops/pkg/tool"
	"github.com/osbeck/labops/pkg/vars"
	"github.com/osbeck/labops/pkg/version"
)

const fallbackPlaybookBin = "ansible-playbook"

var cfgFile string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "labops",
		Short: "Lab automation project tooling and MCP server",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.labops/config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(playbooksCmd())
	root.AddCommand(rolesCmd())
	root.AddCommand(docsCmd())
	root.AddCommand(inventoriesCmd())
	root.AddCommand(readCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(runCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// stack is the wired application: configuration, catalog, and the tool
// set every command works through.
type stack struct {
	cfg      *config.Config
	catalog  *project.Catalog
	writer   *vars.Writer
	builder  *playbook.Builder
	runner   *playbook.Runner
	registry *tool.Registry
}

func buildStack(cfgPath string) (*stack, error) {
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	catalog, err := project.NewCatalog(cfg.Project)
	if err != nil {
		return nil, err
	}
	layout := catalog.Layout()

	engine := vars.NewEngine(cfg.Render.Anchor, cfg.Render.QuotedKeys)
	writer := vars.NewWriter(engine, catalog.Sandbox(), layout.VarsDir, layout.SampleFile, layout.TargetFile)
	builder := &playbook.Builder{
		Project:        catalog.Sandbox(),
		AnsibleDir:     layout.AnsibleDir,
		BundledBin:     layout.BundledBin,
		ConfigFile:     layout.AnsibleCfg,
		Fallback:       fallbackPlaybookBin,
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
		tool.NewProjectInfoTool(catalog, fallbackPlaybookBin),
	)
	if err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}

	return &stack{
		cfg:      cfg,
		catalog:  catalog,
		writer:   writer,
		builder:  builder,
		runner:   runner,
		registry: registry,
	}, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			server := mcp.NewServer(s.registry)
			server.SetLogger(logging.New(s.cfg.LogLevel, os.Getenv("LABOPS_LOG_FORMAT")))
			return server.ServeStdio()
		},
	}
}

func playbooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playbooks",
		Short: "List playbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			playbooks, err := s.catalog.ListPlaybooks()
			if err != nil {
				return err
			}
			for _, p := range playbooks {
				fmt.Printf("%s\t%s\n", p.Name, p.Path)
			}
			return nil
		},
	}
}

func rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			roles, err := s.catalog.ListRoles()
			if err != nil {
				return err
			}
			for _, role := range roles {
				fmt.Println(role)
			}
			return nil
		},
	}
}

func docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List documentation pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			docs, err := s.catalog.ListDocs()
			if err != nil {
				return err
			}
			for _, doc := range docs {
				fmt.Printf("%s\t%s\n", doc.Path, doc.Title)
			}
			return nil
		},
	}
}

func inventoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventories",
		Short: "List inventory files",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			inventories, err := s.catalog.ListInventories()
			if err != nil {
				return err
			}
			for _, inventory := range inventories {
				fmt.Println(inventory)
			}
			return nil
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read PATH",
		Short: "Print a project text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			contents, err := s.catalog.ReadTextFile(args[0])
			if err != nil {
				return err
			}
			fmt.Print(contents)
			return nil
		},
	}
}

func renderCmd() *cobra.Command {
	var req vars.ClusterRequest
	var workerNodeCount int

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the cluster vars file from the sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("worker-node-count") {
				req.WorkerNodeCount = &workerNodeCount
			}
			result, err := s.writer.Create(req)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&req.Lab, "lab", "", "lab name, e.g. scalelab")
	cmd.Flags().StringVar(&req.LabCloud, "lab-cloud", "", "cloud allocation, e.g. cloud99")
	cmd.Flags().StringVar(&req.ClusterType, "cluster-type", "", "sno, mno or vmno")
	cmd.Flags().StringVar(&req.OCPBuild, "ocp-build", "", "OpenShift build stream, e.g. ga")
	cmd.Flags().StringVar(&req.OCPVersion, "ocp-version", "", "OpenShift version, e.g. 4.16.14")
	cmd.Flags().BoolVar(&req.PublicVLAN, "public-vlan", false, "deploy on the public VLAN")
	cmd.Flags().BoolVar(&req.SNOUseLabDHCP, "sno-use-lab-dhcp", false, "use lab DHCP for sno")
	cmd.Flags().StringVar(&req.SSHPrivateKeyFile, "ssh-private-key", "", "ssh private key path")
	cmd.Flags().StringVar(&req.SSHPublicKeyFile, "ssh-public-key", "", "ssh public key path")
	cmd.Flags().StringVar(&req.SNOInstallDisk, "sno-install-disk", "", "install disk for sno")
	cmd.Flags().StringVar(&req.ControlPlaneInstallDisk, "control-plane-install-disk", "", "control plane install disk")
	cmd.Flags().StringVar(&req.WorkerInstallDisk, "worker-install-disk", "", "worker install disk")
	cmd.Flags().StringVar(&req.PullSecretLookup, "pull-secret-lookup", "", "pull secret lookup path")
	cmd.Flags().IntVar(&workerNodeCount, "worker-node-count", 0, "worker node count")
	cmd.Flags().StringVarP(&req.ExtraVarsJSON, "extra-vars", "e", "", "flat JSON object of override vars")

	_ = cmd.MarkFlagRequired("lab")
	_ = cmd.MarkFlagRequired("lab-cloud")
	_ = cmd.MarkFlagRequired("cluster-type")
	_ = cmd.MarkFlagRequired("ocp-build")
	_ = cmd.MarkFlagRequired("ocp-version")
	return cmd
}

func runCmd() *cobra.Command {
	var req playbook.RunRequest

	cmd := &cobra.Command{
		Use:   "run PLAYBOOK",
		Short: "Run a playbook and print the captured result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(cfgFile)
			if err != nil {
				return err
			}
			req.PlaybookName = args[0]
			spec, err := s.builder.Build(req)
			if err != nil {
				return err
			}
			result, err := s.runner.Run(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVarP(&req.InventoryPath, "inventory", "i", "", "inventory path relative to the project root")
	cmd.Flags().StringVar(&req.Limit, "limit", "", "ansible --limit expression")
	cmd.Flags().StringVar(&req.Tags, "tags", "", "ansible --tags list")
	cmd.Flags().StringVarP(&req.ExtraVarsJSON, "extra-vars", "e", "", "JSON object passed with -e")
	cmd.Flags().BoolVar(&req.Check, "check", false, "run in check mode")
	cmd.Flags().IntVar(&req.TimeoutSeconds, "timeout", 0, "process timeout in seconds")
	return cmd
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the project is runnable",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			return runDoctor(cmd, cfg)
		},
	}
}

func runDoctor(cmd *cobra.Command, cfg *config.Config) error {
	failed := 0
	check := func(status, name, detail string) {
		if status == "fail" {
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-4s  %s: %s\n", status, name, detail)
	}

	catalog, err := project.NewCatalog(cfg.Project)
	if err != nil {
		check("fail", "project root", err.Error())
		return fmt.Errorf("1 check failed")
	}
	layout := catalog.Layout()
	check("pass", "project root", layout.Root)

	dirCheck := func(name, rel string, warnOnly bool) {
		status := "pass"
		detail := rel
		if _, err := os.Stat(filepath.Join(layout.Root, rel)); err != nil {
			status = "fail"
			if warnOnly {
				status = "warn"
			}
			detail = rel + " (missing)"
		}
		check(status, name, detail)
	}

	dirCheck("ansible directory", layout.AnsibleDir, false)
	dirCheck("sample vars file", filepath.Join(layout.VarsDir, layout.SampleFile), false)
	dirCheck("ansible.cfg", layout.AnsibleCfg, true)
	dirCheck("docs directory", layout.DocsDir, true)

	profile, _ := system.Detect(filepath.Join(layout.Root, layout.BundledBin), fallbackPlaybookBin)
	switch profile.Ansible.Source {
	case system.SourceMissing:
		check("fail", "ansible-playbook", "not found (bundle missing and not on PATH)")
	default:
		detail := fmt.Sprintf("%s (%s)", profile.Ansible.Path, profile.Ansible.Source)
		if profile.Ansible.Version != "" {
			detail += " " + profile.Ansible.Version
		}
		check("pass", "ansible-playbook", detail)
	}

	if missing := profile.MissingBins([]string{"ssh", "python3"}); len(missing) > 0 {
		for _, bin := range missing {
			check("warn", "helper binary", bin+" not on PATH")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}
