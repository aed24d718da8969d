package tool

import (
	"context"

	"github.com/osbeck/labops/pkg/vars"
)

type CreateVarsFileTool struct {
	writer *vars.Writer
}

func NewCreateVarsFileTool(writer *vars.Writer) *CreateVarsFileTool {
	return &CreateVarsFileTool{writer: writer}
}

func (t *CreateVarsFileTool) Name() string {
	return "create_vars_file"
}

func (t *CreateVarsFileTool) Description() string {
	return "Create or overwrite the cluster vars file from the sample, replacing only the requested keys and preserving comments and spacing"
}

func (t *CreateVarsFileTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"lab": map[string]string{
				"type":        "string",
				"description": "Lab name, e.g. scalelab",
			},
			"lab_cloud": map[string]string{
				"type":        "string",
				"description": "Cloud allocation within the lab, e.g. cloud99",
			},
			"cluster_type": map[string]string{
				"type":        "string",
				"description": "Deployment flavor: sno, mno or vmno",
			},
			"ocp_build": map[string]string{
				"type":        "string",
				"description": "OpenShift build stream, e.g. ga",
			},
			"ocp_version": map[string]string{
				"type":        "string",
				"description": "OpenShift version, e.g. 4.16.14",
			},
			"public_vlan": map[string]string{
				"type":        "boolean",
				"description": "Deploy on the public VLAN",
			},
			"sno_use_lab_dhcp": map[string]string{
				"type":        "boolean",
				"description": "Use lab DHCP for single node deployments",
			},
			"ssh_private_key_file": map[string]string{
				"type":        "string",
				"description": "SSH private key path, default ~/.ssh/id_rsa",
			},
			"ssh_public_key_file": map[string]string{
				"type":        "string",
				"description": "SSH public key path, default ~/.ssh/id_rsa.pub",
			},
			"sno_install_disk": map[string]string{
				"type":        "string",
				"description": "Install disk for sno clusters, e.g. /dev/nvme0n1",
			},
			"control_plane_install_disk": map[string]string{
				"type":        "string",
				"description": "Control plane install disk for mno/vmno clusters",
			},
			"worker_install_disk": map[string]string{
				"type":        "string",
				"description": "Worker install disk for mno/vmno clusters",
			},
			"pull_secret_lookup": map[string]string{
				"type":        "string",
				"description": "Path used inside the pull_secret file lookup, default ../pull_secret.txt",
			},
			"worker_node_count": map[string]string{
				"type":        "integer",
				"description": "Worker node count override",
			},
			"extra_vars_json": map[string]string{
				"type":        "string",
				"description": "Flat JSON object of override vars appended after the anchor comment",
			},
		},
		"required":             []string{"lab", "lab_cloud", "cluster_type", "ocp_build", "ocp_version"},
		"additionalProperties": false,
	}
}

func (t *CreateVarsFileTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	req := vars.ClusterRequest{
		Lab:                     stringArg(input, "lab"),
		LabCloud:                stringArg(input, "lab_cloud"),
		ClusterType:             stringArg(input, "cluster_type"),
		OCPBuild:                stringArg(input, "ocp_build"),
		OCPVersion:              stringArg(input, "ocp_version"),
		PublicVLAN:              boolArg(input, "public_vlan"),
		SNOUseLabDHCP:           boolArg(input, "sno_use_lab_dhcp"),
		SSHPrivateKeyFile:       stringArg(input, "ssh_private_key_file"),
		SSHPublicKeyFile:        stringArg(input, "ssh_public_key_file"),
		SNOInstallDisk:          stringArg(input, "sno_install_disk"),
		ControlPlaneInstallDisk: stringArg(input, "control_plane_install_disk"),
		WorkerInstallDisk:       stringArg(input, "worker_install_disk"),
		PullSecretLookup:        stringArg(input, "pull_secret_lookup"),
		ExtraVarsJSON:           stringArg(input, "extra_vars_json"),
	}
	if count, ok := intArg(input, "worker_node_count"); ok {
		req.WorkerNodeCount = &count
	}
	return t.writer.Create(req)
}
