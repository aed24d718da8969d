package vars

import (
	"fmt"
	"sort"
	"strings"

	"github.com/osbeck/labops/pkg/fault"
)

// Cluster deployment flavors understood by the lab playbooks.
const (
	ClusterSNO  = "sno"  // single node
	ClusterMNO  = "mno"  // multi node, bare metal
	ClusterVMNO = "vmno" // multi node on VMs
)

const (
	defaultSSHPrivateKey    = "~/.ssh/id_rsa"
	defaultSSHPublicKey     = "~/.ssh/id_rsa.pub"
	defaultPullSecretLookup = "../pull_secret.txt"
)

var allowedClusterTypes = map[string]bool{
	ClusterSNO:  true,
	ClusterMNO:  true,
	ClusterVMNO: true,
}

// ClusterRequest carries the parameters for rendering the cluster vars
// file. Zero-valued optional fields fall back to the documented
// defaults; install-disk fields apply only to the matching cluster type.
type ClusterRequest struct {
	Lab         string
	LabCloud    string
	ClusterType string
	OCPBuild    string
	OCPVersion  string

	PublicVLAN    bool
	SNOUseLabDHCP bool

	SSHPrivateKeyFile string
	SSHPublicKeyFile  string

	SNOInstallDisk          string
	ControlPlaneInstallDisk string
	WorkerInstallDisk       string

	PullSecretLookup string
	WorkerNodeCount  *int

	ExtraVarsJSON string
}

// Validate rejects unknown cluster types before any filesystem work.
func (r *ClusterRequest) Validate() error {
	if !allowedClusterTypes[r.ClusterType] {
		names := make([]string, 0, len(allowedClusterTypes))
		for name := range allowedClusterTypes {
			names = append(names, name)
		}
		sort.Strings(names)
		return fault.Validation("cluster_type must be one of [%s], got %q", strings.Join(names, " "), r.ClusterType)
	}
	return nil
}

// BuildClusterRules expands a request into the ordered replacement rule
// list: identity keys first, then flags, build/version, ssh keys, the
// pull-secret lookup expression, and finally the per-cluster-type
// extras. The pull secret is always a templating expression, so the
// engine quotes it.
func BuildClusterRules(req ClusterRequest) ([]Rule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	privateKey := req.SSHPrivateKeyFile
	if privateKey == "" {
		privateKey = defaultSSHPrivateKey
	}
	publicKey := req.SSHPublicKeyFile
	if publicKey == "" {
		publicKey = defaultSSHPublicKey
	}
	lookup := req.PullSecretLookup
	if lookup == "" {
		lookup = defaultPullSecretLookup
	}

	rules := []Rule{
		{Key: "lab", Value: req.Lab},
		{Key: "lab_cloud", Value: req.LabCloud},
		{Key: "cluster_type", Value: req.ClusterType},
		{Key: "public_vlan", Value: req.PublicVLAN},
		{Key: "sno_use_lab_dhcp", Value: req.SNOUseLabDHCP},
		{Key: "ocp_build", Value: req.OCPBuild},
		{Key: "ocp_version", Value: req.OCPVersion},
		{Key: "ssh_private_key_file", Value: privateKey},
		{Key: "ssh_public_key_file", Value: publicKey},
		{Key: "pull_secret", Value: fmt.Sprintf("{{ lookup('file', '%s') }}", lookup)},
	}

	if req.WorkerNodeCount != nil {
		rules = append(rules, Rule{Key: "worker_node_count", Value: *req.WorkerNodeCount})
	}
	if req.ClusterType == ClusterSNO {
		if req.SNOInstallDisk != "" {
			rules = append(rules, Rule{Key: "sno_install_disk", Value: req.SNOInstallDisk})
		}
	} else {
		if req.ControlPlaneInstallDisk != "" {
			rules = append(rules, Rule{Key: "control_plane_install_disk", Value: req.ControlPlaneInstallDisk})
		}
		if req.WorkerInstallDisk != "" {
			rules = append(rules, Rule{Key: "worker_install_disk", Value: req.WorkerInstallDisk})
		}
	}
	return rules, nil
}
