// Package native builds the recastnavigation source tree with CMake.
package native

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/recastbind/internal/capability"
	"github.com/goplus/recastbind/internal/execx"
	"github.com/goplus/recastbind/internal/platform"
	"github.com/goplus/recastbind/pkgs/buildsys"
	"github.com/goplus/recastbind/pkgs/buildsys/cmake"
)

// Options that never change: demos, examples and tests are not built.
var disabledExtras = []string{
	"RECASTNAVIGATION_DEMO",
	"RECASTNAVIGATION_EXAMPLES",
	"RECASTNAVIGATION_TESTS",
}

// defineOptions maps macros of the DefineSet to the cmake option that
// turns them on inside the native tree.
var defineOptions = map[string]string{
	capability.WideRefDefine: "RECASTNAVIGATION_DT_POLYREF64",
}

// Artifacts is the read-only result of a native build.
type Artifacts struct {
	Root         string
	LibDirs      []string // Root/lib and Root/lib64; layouts differ by platform
	IncludeRoots []string // one per module, always all of them
}

// Driver runs the native build system.
type Driver struct {
	Runner    execx.Runner
	CMake     string // executable, defaults to "cmake"
	Generator string
	Toolchain string
	CXX       string
	Extra     map[string]string // user supplied -D options
}

// IncludeRoots returns <sourceDir>/<Module>/Include for every module in
// declaration order, whether selected or not.
func IncludeRoots(sourceDir string) []string {
	roots := make([]string, len(capability.Modules))
	for i, m := range capability.Modules {
		roots[i] = filepath.Join(sourceDir, m.Name, "Include")
	}
	return roots
}

// Build configures, builds and installs the whole source tree once into
// outDir. Any failure is fatal; the build is never retried.
func (d *Driver) Build(sourceDir, outDir string, defines *capability.DefineSet, profile platform.Profile) (*Artifacts, error) {
	buildDir := filepath.Join(outDir, "build")
	installDir := filepath.Join(outDir, "native")

	c := cmake.New(d.Runner, sourceDir, buildDir).Bin(d.CMake)
	c.InstallDir(installDir)
	if profile.IsDebug() {
		c.BuildType("Debug")
	} else {
		c.BuildType("Release")
	}
	if d.Generator != "" {
		c.Generator(d.Generator)
	}
	if d.Toolchain != "" {
		c.Toolchain(d.Toolchain)
	}
	if d.CXX != "" {
		c.Env("CXX", d.CXX)
	}
	for _, opt := range disabledExtras {
		c.DefineBool(opt, false)
	}
	for k, v := range d.Extra {
		c.Define(k, v)
	}
	if flags := applyDefines(c, defines); len(flags) > 0 {
		c.Define("CMAKE_CXX_FLAGS", strings.Join(flags, " "))
	}

	root, err := buildsys.Run(c)
	if err != nil {
		return nil, fmt.Errorf("native build of %s: %w", sourceDir, err)
	}
	return &Artifacts{
		Root:         root,
		LibDirs:      []string{filepath.Join(root, "lib"), filepath.Join(root, "lib64")},
		IncludeRoots: IncludeRoots(sourceDir),
	}, nil
}

// applyDefines turns known macros into cmake options and returns the rest as
// compiler flags.
func applyDefines(c *cmake.CMake, defines *capability.DefineSet) []string {
	var flags []string
	for _, def := range defines.Defines() {
		if opt, ok := defineOptions[def.Name]; ok && def.Value == nil {
			c.DefineBool(opt, true)
			continue
		}
		flags = append(flags, def.Arg())
	}
	sort.Strings(flags)
	return flags
}
