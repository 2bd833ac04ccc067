// Package licenses reports the third-party modules compiled into the binary.
package licenses

import (
	"fmt"
	"io"
	"runtime/debug"
	"sort"
	"strings"
)

// knownLicenses maps module paths, or path prefixes ending in "/", to SPDX ids.
var knownLicenses = map[string]string{
	"github.com/BurntSushi/toml":           "MIT",
	"github.com/caarlos0/env/v11":          "MIT",
	"github.com/fsnotify/fsnotify":         "BSD-3-Clause",
	"github.com/google/uuid":               "BSD-3-Clause",
	"github.com/inconshreveable/mousetrap": "Apache-2.0",
	"github.com/rivo/uniseg":               "MIT",
	"github.com/spf13/cobra":               "Apache-2.0",
	"github.com/spf13/pflag":               "BSD-3-Clause",
	"golang.org/x/":                        "BSD-3-Clause",
}

type Notice struct {
	Path    string
	Version string
	License string
}

// Notices lists the modules of the running binary.
func Notices() []Notice {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return FromBuildInfo(info)
}

func FromBuildInfo(info *debug.BuildInfo) []Notice {
	if info == nil {
		return nil
	}
	notices := make([]Notice, 0, len(info.Deps))
	for _, dep := range info.Deps {
		mod := dep
		if dep.Replace != nil {
			mod = dep.Replace
		}
		notices = append(notices, Notice{
			Path:    dep.Path,
			Version: mod.Version,
			License: LicenseOf(dep.Path),
		})
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].Path < notices[j].Path })
	return notices
}

// LicenseOf returns the SPDX id recorded for path, or "unknown".
func LicenseOf(path string) string {
	if id, ok := knownLicenses[path]; ok {
		return id
	}
	for prefix, id := range knownLicenses {
		if strings.HasSuffix(prefix, "/") && strings.HasPrefix(path, prefix) {
			return id
		}
	}
	return "unknown"
}

func Write(w io.Writer, notices []Notice) error {
	if len(notices) == 0 {
		_, err := fmt.Fprintln(w, "No module information embedded in this binary.")
		return err
	}
	for _, n := range notices {
		if _, err := fmt.Fprintf(w, "%s %s (%s)\n", n.Path, n.Version, n.License); err != nil {
			return err
		}
	}
	return nil
}
