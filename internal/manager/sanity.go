package manager

import (
	"os"
	"path/filepath"
	"strings"

	"sessiond/internal/common/fsutil"
)

// SanityReport describes local preconditions for Init that can be checked
// without loading the engine. Remote sources are reported but not fetched.
type SanityReport struct {
	ModelFound   bool     `json:"model_found"`
	ModelPath    string   `json:"model_path,omitempty"`
	ModelRemote  bool     `json:"model_remote"`
	BinarySource string   `json:"binary_source"`
	BinaryRemote bool     `json:"binary_remote"`
	BinaryFound  bool     `json:"binary_found"`
	BinaryPath   string   `json:"binary_path,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// OK reports whether no check failed.
func (r SanityReport) OK() bool { return len(r.Errors) == 0 }

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SanityCheck validates that the model and a local runtime library are present.
// It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{BinarySource: m.env.BinarySource()}

	switch model := m.cfg.Model; {
	case len(model.Data) > 0:
		r.ModelFound = true
	case isRemoteURL(model.Path):
		r.ModelRemote = true
		r.ModelPath = model.Path
	default:
		r.ModelPath = model.Path
		p, err := fsutil.ExpandHome(model.Path)
		if err != nil {
			r.Errors = append(r.Errors, err.Error())
			break
		}
		if fi, err := os.Stat(p); err != nil {
			r.Errors = append(r.Errors, "model: "+err.Error())
		} else if fi.IsDir() {
			r.Errors = append(r.Errors, "model path is a directory")
		} else {
			r.ModelFound = true
		}
	}

	if len(m.env.Binary()) > 0 {
		r.BinaryFound = true
		return r
	}
	if isRemoteURL(r.BinarySource) {
		r.BinaryRemote = true
		return r
	}
	local, err := fsutil.ExpandHome(strings.TrimPrefix(r.BinarySource, "file://"))
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}
	r.BinaryPath = filepath.Join(local, RuntimeBinaryName)
	if isArchive(local) {
		r.BinaryPath = local
	}
	if fsutil.PathExists(r.BinaryPath) {
		r.BinaryFound = true
	} else {
		r.Errors = append(r.Errors, "runtime library not found at "+r.BinaryPath)
	}
	return r
}
