package manager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanityCheck_LocalFilesPresent(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "m.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, RuntimeBinaryName), []byte("lib"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := cpuConfig()
	cfg.Model = ModelSource{Path: model}
	cfg.BinarySource = "file://" + dir
	m, _ := newTestManager(t, newFakeEngine(), cfg, 4)

	r := m.SanityCheck()
	if !r.OK() || !r.ModelFound || !r.BinaryFound {
		t.Fatalf("expected all checks to pass, got %+v", r)
	}
	if r.BinaryPath != filepath.Join(dir, RuntimeBinaryName) {
		t.Fatalf("binary path=%q", r.BinaryPath)
	}
}

func TestSanityCheck_MissingFiles(t *testing.T) {
	cfg := cpuConfig()
	cfg.Model = ModelSource{Path: "/does/not/exist.onnx"}
	cfg.BinarySource = t.TempDir()
	m, _ := newTestManager(t, newFakeEngine(), cfg, 4)

	r := m.SanityCheck()
	if r.OK() || r.ModelFound || r.BinaryFound {
		t.Fatalf("expected failures, got %+v", r)
	}
	if len(r.Errors) != 2 {
		t.Fatalf("errors=%v", r.Errors)
	}
}

func TestSanityCheck_RemoteSourcesNotFetched(t *testing.T) {
	cfg := cpuConfig()
	cfg.Model = ModelSource{Path: "https://models.example/m.onnx"}
	m, _ := newTestManager(t, newFakeEngine(), cfg, 4)

	r := m.SanityCheck()
	if !r.OK() || !r.ModelRemote || !r.BinaryRemote {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.BinarySource != DefaultBinarySource {
		t.Fatalf("binary source=%q", r.BinarySource)
	}
}

func TestSanityCheck_InstalledBinaryAndInMemoryModel(t *testing.T) {
	eng := newFakeEngine()
	cfg := cpuConfig()
	cfg.Model = ModelSource{Data: []byte{1, 2, 3}}
	m, _ := newTestManager(t, eng, cfg, 4)
	eng.env.SetBinary([]byte("lib"))

	r := m.SanityCheck()
	if !r.OK() || !r.ModelFound || !r.BinaryFound {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestSanityCheck_LocalArchiveSource(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "onnxruntime.tgz")
	if err := os.WriteFile(archive, []byte("tgz"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := cpuConfig()
	cfg.Model = ModelSource{Data: []byte("onnx")}
	cfg.BinarySource = archive
	m, _ := newTestManager(t, newFakeEngine(), cfg, 4)

	r := m.SanityCheck()
	if !r.BinaryFound || r.BinaryPath != archive {
		t.Fatalf("expected the archive to be found, got %+v", r)
	}
}
