package manager

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"
)

// RuntimeVersion is the ONNX Runtime release whose C API the linked
// onnxruntime_go binding is built against.
const RuntimeVersion = "1.22.0"

// DefaultBinarySource is where runtime binaries are fetched from when the
// config does not override it. It serves the per-platform release archives.
const DefaultBinarySource = "https://github.com/microsoft/onnxruntime/releases/download/v" + RuntimeVersion + "/"

// RuntimeBinaryName is the runtime shared library file name for this platform.
var RuntimeBinaryName = runtimeBinaryName(runtime.GOOS)

// RuntimeArchiveName is the release archive for this platform, or "" when
// no prebuilt archive is published for it.
var RuntimeArchiveName = runtimeArchiveName(runtime.GOOS, runtime.GOARCH)

func runtimeBinaryName(goos string) string {
	switch goos {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}

func runtimeArchiveName(goos, goarch string) string {
	var plat, ext string
	switch goos + "/" + goarch {
	case "linux/amd64":
		plat, ext = "linux-x64", ".tgz"
	case "linux/arm64":
		plat, ext = "linux-aarch64", ".tgz"
	case "darwin/arm64":
		plat, ext = "osx-arm64", ".tgz"
	case "darwin/amd64":
		plat, ext = "osx-x86_64", ".tgz"
	case "windows/amd64":
		plat, ext = "win-x64", ".zip"
	case "windows/arm64":
		plat, ext = "win-arm64", ".zip"
	default:
		return ""
	}
	return "onnxruntime-" + plat + "-" + RuntimeVersion + ext
}

// RuntimeBinaryURL returns what to fetch from src. A src naming an archive
// is used as is. The default source only publishes archives; any other
// source is a prefix holding the bare library.
func RuntimeBinaryURL(src string) string {
	switch {
	case isArchive(src):
		return src
	case src == DefaultBinarySource && RuntimeArchiveName != "":
		return src + RuntimeArchiveName
	default:
		return src + RuntimeBinaryName
	}
}

func isArchive(name string) bool {
	return strings.HasSuffix(name, ".tgz") || strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".zip")
}

// UnpackRuntimeBinary returns the shared library carried by data. When name
// ends in .tgz, .tar.gz or .zip the archive is searched for the library;
// otherwise data is returned as is.
func UnpackRuntimeBinary(name string, data []byte) ([]byte, error) {
	return unpackRuntimeBinary(runtime.GOOS, name, data)
}

func unpackRuntimeBinary(goos, name string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(name, ".tgz"), strings.HasSuffix(name, ".tar.gz"):
		return libraryFromTarGz(goos, data)
	case strings.HasSuffix(name, ".zip"):
		return libraryFromZip(goos, data)
	default:
		return data, nil
	}
}

// isRuntimeLibrary matches the library file inside a release archive. On
// unix the unversioned names are symlinks, so versioned names are accepted.
func isRuntimeLibrary(goos, entry string) bool {
	base := path.Base(entry)
	switch goos {
	case "darwin":
		return strings.HasPrefix(base, "libonnxruntime.") && strings.HasSuffix(base, ".dylib")
	case "windows":
		return base == "onnxruntime.dll"
	default:
		return base == "libonnxruntime.so" || strings.HasPrefix(base, "libonnxruntime.so.")
	}
}

func libraryFromTarGz(goos string, data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !isRuntimeLibrary(goos, hdr.Name) {
			continue
		}
		b, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("archive has no %s", runtimeBinaryName(goos))
}

func libraryFromZip(goos string, data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isRuntimeLibrary(goos, f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("archive has no %s", runtimeBinaryName(goos))
}
