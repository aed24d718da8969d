package system

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFakeAnsible(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\necho 'ansible-playbook [core 2.16.4]'\necho '  config file = None'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDetectAnsiblePrefersBundled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	bundled := writeFakeAnsible(t, dir, "ansible-playbook")

	ansible := detectAnsible(bundled, "ansible-playbook")
	if ansible.Source != SourceBundled {
		t.Fatalf("expected source %q, got %q", SourceBundled, ansible.Source)
	}
	if ansible.Path != bundled {
		t.Fatalf("expected path %q, got %q", bundled, ansible.Path)
	}
	if ansible.Version != "ansible-playbook [core 2.16.4]" {
		t.Fatalf("unexpected version: %q", ansible.Version)
	}
}

func TestDetectAnsibleFallsBackToPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	writeFakeAnsible(t, dir, "fake-playbook-bin")
	t.Setenv("PATH", dir)

	ansible := detectAnsible(filepath.Join(dir, "no-bundle-here"), "fake-playbook-bin")
	if ansible.Source != SourcePath {
		t.Fatalf("expected source %q, got %q", SourcePath, ansible.Source)
	}
	if ansible.Path != filepath.Join(dir, "fake-playbook-bin") {
		t.Fatalf("unexpected path: %q", ansible.Path)
	}
}

func TestDetectAnsibleMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	ansible := detectAnsible("", "definitely-not-installed")
	if ansible.Source != SourceMissing {
		t.Fatalf("expected source %q, got %q", SourceMissing, ansible.Source)
	}
	if ansible.Path != "" || ansible.Version != "" {
		t.Fatalf("expected empty path and version, got %+v", ansible)
	}
}

func TestDetectAnsibleSkipsNonExecutableBundle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are unix-specific")
	}
	dir := t.TempDir()
	bundled := filepath.Join(dir, "ansible-playbook")
	if err := os.WriteFile(bundled, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PATH", t.TempDir())

	ansible := detectAnsible(bundled, "also-not-installed")
	if ansible.Source != SourceMissing {
		t.Fatalf("expected source %q, got %q", SourceMissing, ansible.Source)
	}
}

func TestMissingBins(t *testing.T) {
	profile := &Profile{AvailableBins: []string{"ssh", "Python3"}}
	missing := profile.MissingBins([]string{"ssh", "python3", "kubectl"})
	if len(missing) != 1 || missing[0] != "kubectl" {
		t.Fatalf("expected [kubectl], got %v", missing)
	}
	if got := profile.MissingBins(nil); got != nil {
		t.Fatalf("expected nil for empty query, got %v", got)
	}
}

func TestParseOSRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	contents := "NAME=\"Fedora Linux\"\nID=fedora\nVERSION_ID=39\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	distro, version := parseOSRelease(path)
	if distro != "fedora" || version != "39" {
		t.Fatalf("expected fedora/39, got %q/%q", distro, version)
	}
}

func TestParseOSReleaseMissingFile(t *testing.T) {
	distro, version := parseOSRelease(filepath.Join(t.TempDir(), "absent"))
	if distro != "" || version != "" {
		t.Fatalf("expected empty values, got %q/%q", distro, version)
	}
}
