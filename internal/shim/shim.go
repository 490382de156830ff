// Package shim compiles the hand-written translation unit that re-exports
// inline-only Recast and DetourTileCache functions as linkable symbols.
package shim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goplus/recastbind/internal/capability"
	"github.com/goplus/recastbind/internal/execx"
	"github.com/goplus/recastbind/internal/platform"
)

// Files of the shim source tree and the library produced from them.
const (
	SourceFile = "inline.cc"
	HeaderFile = "inline.h"
	LibName    = "recast_inline"
)

// Needed reports whether sel contains a module with inline-only entry
// points. Compiling the shim and generating its bindings both hinge on it.
func Needed(sel capability.Selection) bool {
	return sel.NeedsShim()
}

// Compiler builds the shim static library.
type Compiler struct {
	Runner execx.Runner
	CXX    string   // defaults to c++, or cl for msvc targets
	AR     string   // defaults to ar, or lib for msvc targets
	Flags  []string // extra compiler flags
}

// Result locates the compiled library.
type Result struct {
	Dir string
	Lib string
}

// Compile builds <shimDir>/inline.cc into a static library under outDir.
// defines is the run's shared DefineSet; markers adds one macro per selected
// module so the source only exposes the relevant entry points.
func (c *Compiler) Compile(shimDir, outDir string, includeRoots []string, defines, markers *capability.DefineSet, profile platform.Profile) (*Result, error) {
	src := filepath.Join(shimDir, SourceFile)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("shim source: %w", err)
	}
	dir := filepath.Join(outDir, "shim")
	if !execx.IsDryRun(c.Runner) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	all := defines.Merge(markers)
	var compile, archive execx.Command
	if profile.IsMSVC() {
		compile, archive = c.msvc(src, dir, includeRoots, all, profile)
	} else {
		compile, archive = c.gnu(src, dir, includeRoots, all, profile)
	}
	if err := c.Runner.Run(compile); err != nil {
		return nil, fmt.Errorf("compile shim: %w", err)
	}
	if err := c.Runner.Run(archive); err != nil {
		return nil, fmt.Errorf("archive shim: %w", err)
	}
	return &Result{Dir: dir, Lib: LibName}, nil
}

func (c *Compiler) gnu(src, dir string, includeRoots []string, defines *capability.DefineSet, profile platform.Profile) (compile, archive execx.Command) {
	obj := filepath.Join(dir, "inline.o")
	args := []string{"-c", src, "-o", obj}
	if !profile.IsWindows() {
		args = append(args, "-fPIC")
	}
	if profile.IsX86_32() {
		args = append(args, "-m32")
	}
	if profile.IsDebug() {
		args = append(args, "-O0", "-g")
	} else {
		args = append(args, "-O2")
	}
	for _, inc := range includeRoots {
		args = append(args, "-I"+inc)
	}
	args = append(args, defines.Args()...)
	args = append(args, c.Flags...)

	compile = execx.Command{Name: orDefault(c.CXX, "c++"), Args: args}
	archive = execx.Command{
		Name: orDefault(c.AR, "ar"),
		Args: []string{"crs", filepath.Join(dir, "lib"+LibName+".a"), obj},
	}
	return
}

func (c *Compiler) msvc(src, dir string, includeRoots []string, defines *capability.DefineSet, profile platform.Profile) (compile, archive execx.Command) {
	obj := filepath.Join(dir, "inline.obj")
	args := []string{"/nologo", "/EHsc", "/c", src, "/Fo" + obj}
	if profile.IsDebug() {
		args = append(args, "/MDd", "/Od", "/Z7")
	} else {
		args = append(args, "/MD", "/O2")
	}
	for _, inc := range includeRoots {
		args = append(args, "/I"+inc)
	}
	for _, d := range defines.Defines() {
		if d.Value == nil {
			args = append(args, "/D"+d.Name)
		} else {
			args = append(args, "/D"+d.Name+"="+*d.Value)
		}
	}
	args = append(args, c.Flags...)

	compile = execx.Command{Name: orDefault(c.CXX, "cl"), Args: args}
	archive = execx.Command{
		Name: orDefault(c.AR, "lib"),
		Args: []string{"/nologo", "/OUT:" + filepath.Join(dir, LibName+".lib"), obj},
	}
	return
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
