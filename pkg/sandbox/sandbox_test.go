package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/osbeck/labops/pkg/fault"
)

func newSandbox(t *testing.T) (*Sandbox, string) {
	t.Helper()
	dir := t.TempDir()
	sb, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sb, sb.Base()
}

func TestResolveDescendant(t *testing.T) {
	sb, base := newSandbox(t)
	sub := filepath.Join(base, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file := filepath.Join(sub, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := sb.Resolve("sub/file.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != file {
		t.Fatalf("expected %q, got %q", file, got)
	}
}

func TestResolveBaseItself(t *testing.T) {
	sb, base := newSandbox(t)
	got, err := sb.Resolve(base)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != base {
		t.Fatalf("expected %q, got %q", base, got)
	}
}

func TestResolveRejectsDotDotEscape(t *testing.T) {
	sb, base := newSandbox(t)
	_, err := sb.Resolve(filepath.Join(base, "..", "etc", "passwd"))
	if err == nil {
		t.Fatal("expected escape to fail")
	}
	if fault.KindOf(err) != fault.KindPathEscape {
		t.Fatalf("expected path_escape, got %q (%v)", fault.KindOf(err), err)
	}
}

func TestResolveRejectsRelativeEscape(t *testing.T) {
	sb, _ := newSandbox(t)
	_, err := sb.Resolve("../outside.txt")
	if fault.KindOf(err) != fault.KindPathEscape {
		t.Fatalf("expected path_escape, got %v", err)
	}
}

func TestResolveRejectsAbsoluteOutside(t *testing.T) {
	sb, _ := newSandbox(t)
	_, err := sb.Resolve("/etc/passwd")
	var fe *fault.Error
	if !errors.As(err, &fe) || fe.Kind != fault.KindPathEscape {
		t.Fatalf("expected path_escape fault, got %v", err)
	}
}

func TestResolveNonexistentLeaf(t *testing.T) {
	sb, base := newSandbox(t)
	got, err := sb.Resolve("ansible/vars/all.yml")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(base, "ansible", "vars", "all.yml")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestResolveSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	sb, base := newSandbox(t)
	outside := t.TempDir()
	link := filepath.Join(base, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	_, err := sb.Resolve("link/secret.txt")
	if fault.KindOf(err) != fault.KindPathEscape {
		t.Fatalf("expected path_escape through symlink, got %v", err)
	}
}

func TestResolveSiblingPrefixNotDescendant(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "proj")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sibling := filepath.Join(dir, "proj-data")
	if err := os.MkdirAll(sibling, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sb, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = sb.Resolve(filepath.Join(sibling, "x"))
	if fault.KindOf(err) != fault.KindPathEscape {
		t.Fatalf("expected path_escape for sibling with shared prefix, got %v", err)
	}
}
