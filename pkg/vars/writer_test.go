package vars

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/osbeck/labops/pkg/fault"
	"github.com/osbeck/labops/pkg/sandbox"
)

func newTestWriter(t *testing.T, sample string) (*Writer, string) {
	t.Helper()
	root := t.TempDir()
	varsDir := filepath.Join("ansible", "vars")
	if sample != "" {
		if err := os.MkdirAll(filepath.Join(root, varsDir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(root, varsDir, "all.sample.yml"), []byte(sample), 0o644); err != nil {
			t.Fatalf("write sample: %v", err)
		}
	}
	sb, err := sandbox.New(root)
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	w := NewWriter(newTestEngine(), sb, varsDir, "all.sample.yml", "all.yml")
	return w, filepath.Join(sb.Base(), varsDir, "all.yml")
}

func baseRequest() ClusterRequest {
	return ClusterRequest{
		Lab:         "scalelab",
		LabCloud:    "cloud03",
		ClusterType: ClusterMNO,
		OCPBuild:    "ga",
		OCPVersion:  "4.16",
	}
}

func TestWriterCreateRendersAndWrites(t *testing.T) {
	w, target := newTestWriter(t, sampleDoc)

	req := baseRequest()
	req.ExtraVarsJSON = `{"bastion_lab_interface": "eno1"}`
	res, err := w.Create(req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Written != target {
		t.Fatalf("expected target %q, got %q", target, res.Written)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"lab: scalelab",
		"lab_cloud: cloud03",
		"cluster_type: mno",
		`ocp_build: "ga"`,
		`ocp_version: "4.16"`,
		"public_vlan: false",
		"bastion_lab_interface: eno1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered file missing %q", want)
		}
	}
	if !strings.Contains(text, "# Lab selection") {
		t.Error("comments must survive the render")
	}

	found := false
	for _, entry := range res.Updated {
		if entry == "bastion_lab_interface (appended override)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("override not reported: %#v", res.Updated)
	}
}

func TestWriterCreateReportsSkippedKeys(t *testing.T) {
	w, _ := newTestWriter(t, "lab: example\n")

	res, err := w.Create(baseRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(res.Skipped) == 0 {
		t.Fatal("keys absent from the sample must be reported as skipped")
	}
	for _, key := range res.Skipped {
		if key == "lab" {
			t.Fatal("lab was present and must not be skipped")
		}
	}
}

func TestWriterCreateMissingSample(t *testing.T) {
	w, _ := newTestWriter(t, "")

	_, err := w.Create(baseRequest())
	if fault.KindOf(err) != fault.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestWriterCreateValidatesBeforeFilesystem(t *testing.T) {
	w, target := newTestWriter(t, sampleDoc)

	req := baseRequest()
	req.ClusterType = "bad"
	if _, err := w.Create(req); fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("expected validation fault, got %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("target must not exist after a validation failure")
	}
}

func TestWriterCreateBadExtraVars(t *testing.T) {
	w, target := newTestWriter(t, sampleDoc)

	req := baseRequest()
	req.ExtraVarsJSON = `{"a": `
	if _, err := w.Create(req); fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("expected validation fault, got %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("target must not exist after a validation failure")
	}
}

func TestWriterCreateOverwritesPriorTarget(t *testing.T) {
	w, target := newTestWriter(t, sampleDoc)
	if err := os.WriteFile(target, []byte("stale content\n"), 0o644); err != nil {
		t.Fatalf("seed target: %v", err)
	}

	if _, err := w.Create(baseRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if strings.Contains(string(data), "stale content") {
		t.Fatal("target must be fully replaced")
	}
}

func TestWriterCreateRejectsNonUTF8Sample(t *testing.T) {
	w, _ := newTestWriter(t, string([]byte{0xff, 0xfe, 'a'}))

	_, err := w.Create(baseRequest())
	if fault.KindOf(err) != fault.KindEncoding {
		t.Fatalf("expected encoding fault, got %v", err)
	}
}
