// Package app wires configuration, data loading, fitting, reporting and the
// HTTP server into the bassfit command.
package app

import (
	"fmt"
	"io"
	"runtime"
)

// Build metadata, set with -ldflags:
//
//	go build -ldflags="-X github.com/agbru/bassfit/internal/app.Version=v0.3.0 -X github.com/agbru/bassfit/internal/app.Commit=$(git rev-parse --short HEAD) -X github.com/agbru/bassfit/internal/app.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/bassfit
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args request the version, in any position.
// It runs before flag parsing so that "bassfit -server --version" prints the
// version instead of starting the server.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// VersionData is the build metadata together with the runtime platform.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns the build metadata of the running binary.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion writes the version block shown by --version.
func PrintVersion(out io.Writer) {
	info := GetVersionInfo()
	fmt.Fprintf(out, "bassfit %s\n", info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
}
