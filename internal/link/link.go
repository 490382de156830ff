// Package link resolves the static libraries, search paths and C++ runtime
// needed to link the selected native modules.
package link

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/recastbind/internal/capability"
	"github.com/goplus/recastbind/internal/native"
)

// runtimeRule maps a target triple substring to a C++ runtime library.
// An empty lib means no runtime is linked.
type runtimeRule struct {
	match string
	lib   string
}

// runtimeTable is searched first match wins, so order matters: msvc must
// come before anything else a windows triple might contain.
var runtimeTable = []runtimeRule{
	{"msvc", ""},
	{"apple", "c++"},
	{"freebsd", "c++"},
	{"openbsd", "c++"},
	{"android", "c++_shared"},
	{"wasm32", ""},
}

const defaultRuntime = "stdc++"

// Runtime returns the C++ standard library to link for target, or "" when
// the toolchain links it implicitly.
func Runtime(target string) string {
	for _, r := range runtimeTable {
		if strings.Contains(target, r.match) {
			return r.lib
		}
	}
	return defaultRuntime
}

// Directives is everything the calling build must be told.
type Directives struct {
	SearchPaths       []string `json:"search_paths"`
	StaticLibs        []string `json:"static_libs"`
	Runtime           string   `json:"runtime,omitempty"`
	RerunIfChanged    []string `json:"rerun_if_changed,omitempty"`
	RerunIfEnvChanged []string `json:"rerun_if_env_changed,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Resolve returns the link directives for sel. Nothing but the runtime is
// emitted when no module is selected.
func Resolve(sel capability.Selection, art *native.Artifacts, target string) *Directives {
	d := &Directives{Runtime: Runtime(target)}
	if sel.Empty() || art == nil {
		return d
	}
	d.SearchPaths = append(d.SearchPaths, art.LibDirs...)
	d.StaticLibs = append(d.StaticLibs, sel.Libraries()...)
	return d
}

// AddStatic registers an extra static library and its directory.
func (d *Directives) AddStatic(dir, lib string) {
	d.SearchPaths = append(d.SearchPaths, dir)
	d.StaticLibs = append(d.StaticLibs, lib)
}

func (d *Directives) Warn(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

// Missing returns the static libraries that no search path holds, as
// lib<name>.a or <name>.lib.
func (d *Directives) Missing() []string {
	var missing []string
	for _, lib := range d.StaticLibs {
		if !d.found(lib) {
			missing = append(missing, lib)
		}
	}
	return missing
}

func (d *Directives) found(lib string) bool {
	for _, dir := range d.SearchPaths {
		for _, name := range []string{"lib" + lib + ".a", lib + ".lib"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return true
			}
		}
	}
	return false
}
