package system

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Ansible binary sources, in preference order.
const (
	SourceBundled = "bundled"
	SourcePath    = "path"
	SourceMissing = "missing"
)

// Ansible describes the ansible-playbook binary a run would use.
type Ansible struct {
	Path    string `json:"path,omitempty"`
	Source  string `json:"source"`
	Version string `json:"version,omitempty"`
}

// Profile captures the host the playbooks will be launched from.
type Profile struct {
	OS      string  `json:"os"`
	Distro  string  `json:"distro,omitempty"`
	Version string  `json:"version,omitempty"`
	Kernel  string  `json:"kernel,omitempty"`
	Arch    string  `json:"arch"`
	Ansible Ansible `json:"ansible"`

	AvailableBins []string `json:"-"`
}

// Detect probes the host and resolves the ansible-playbook binary.
// bundled is the absolute path of the project-bundled binary, fallback
// the command name to look up on PATH when the bundle is absent.
func Detect(bundled, fallback string) (*Profile, error) {
	profile := &Profile{
		OS:   runtime.GOOS,
		Arch: detectArch(),
	}

	switch runtime.GOOS {
	case "linux":
		distro, version := parseOSRelease("/etc/os-release")
		profile.Distro = distro
		profile.Version = version
		profile.Kernel, _ = uname("-r")
	case "darwin":
		profile.Distro = "macos"
		if version, err := swVers("-productVersion"); err == nil {
			profile.Version = version
		}
		profile.Kernel, _ = uname("-r")
	case "windows":
		if isWSL() {
			profile.Distro = "wsl"
			profile.Kernel, _ = uname("-r")
			profile.Version = os.Getenv("WSL_DISTRO_NAME")
		} else {
			profile.Distro = "windows"
		}
	}

	profile.Ansible = detectAnsible(bundled, fallback)
	profile.AvailableBins = scanPathBins()
	return profile, nil
}

// MissingBins reports which of the given command names are absent from
// PATH, preserving the order asked for.
func (p *Profile) MissingBins(bins []string) []string {
	if len(bins) == 0 {
		return nil
	}
	available := make(map[string]bool, len(p.AvailableBins))
	for _, bin := range p.AvailableBins {
		available[strings.ToLower(bin)] = true
	}
	missing := []string{}
	for _, bin := range bins {
		if !available[strings.ToLower(bin)] {
			missing = append(missing, bin)
		}
	}
	return missing
}

func detectAnsible(bundled, fallback string) Ansible {
	if bundled != "" {
		if info, err := os.Stat(bundled); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return Ansible{Path: bundled, Source: SourceBundled, Version: binVersion(bundled)}
		}
	}
	if fallback != "" {
		if path, err := exec.LookPath(fallback); err == nil {
			return Ansible{Path: path, Source: SourcePath, Version: binVersion(path)}
		}
	}
	return Ansible{Source: SourceMissing}
}

// binVersion returns the first line of `<bin> --version`, which for
// ansible-playbook names the core release.
func binVersion(path string) string {
	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}

func parseOSRelease(path string) (string, string) {
	file, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer file.Close()

	var distro, version string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "ID=") {
			distro = trimValue(strings.TrimPrefix(line, "ID="))
		}
		if strings.HasPrefix(line, "VERSION_ID=") {
			version = trimValue(strings.TrimPrefix(line, "VERSION_ID="))
		}
	}
	return distro, version
}

func trimValue(val string) string {
	return strings.Trim(val, "\"'")
}

func uname(arg string) (string, error) {
	out, err := exec.Command("uname", arg).Output()
	if err != nil {
		return "", fmt.Errorf("uname %s: %w", arg, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func swVers(arg string) (string, error) {
	out, err := exec.Command("sw_vers", arg).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func detectArch() string {
	if runtime.GOOS == "windows" {
		if arch := os.Getenv("PROCESSOR_ARCHITECTURE"); arch != "" {
			return arch
		}
	}
	if out, err := uname("-m"); err == nil {
		return out
	}
	return runtime.GOARCH
}

func isWSL() bool {
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}

func scanPathBins() []string {
	bins := make(map[string]bool)
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			bins[entry.Name()] = true
		}
	}

	out := make([]string, 0, len(bins))
	for name := range bins {
		out = append(out, name)
	}
	return out
}
