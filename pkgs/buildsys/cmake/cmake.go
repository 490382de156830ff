// Package cmake wraps the cmake configure/build/install workflow.
package cmake

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/goplus/recastbind/internal/execx"
	"github.com/goplus/recastbind/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	runner     execx.Runner
	bin        string
	SourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	Defines    map[string]defineValue
	env        map[string]string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper that runs its commands through runner.
func New(runner execx.Runner, sourceDir, buildDir string) *CMake {
	return &CMake{
		runner:    runner,
		bin:       "cmake",
		SourceDir: sourceDir,
		buildDir:  buildDir,
		Defines:   map[string]defineValue{},
		env:       map[string]string{},
	}
}

// Bin overrides the cmake executable.
func (c *CMake) Bin(path string) *CMake {
	if path != "" {
		c.bin = path
	}
	return c
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// Env sets key=value for every cmake command spawned by c. The process
// environment is left untouched.
func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

func (c *CMake) Configure(args ...string) error {
	buildDir := c.buildDirOrDefault()
	if !execx.IsDryRun(c.runner) {
		if err := os.MkdirAll(buildDir, 0755); err != nil {
			return err
		}
	}
	cmakeArgs := []string{"-S", c.SourceDir, "-B", buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	return c.run(cmakeArgs)
}

func (c *CMake) Build(args ...string) error {
	cmdArgs := []string{"--build", c.buildDirOrDefault()}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(cmdArgs)
}

func (c *CMake) Install(args ...string) error {
	cmdArgs := []string{"--install", c.buildDirOrDefault()}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(cmdArgs)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDirOrDefault()
}

func (c *CMake) buildDirOrDefault() string {
	if c.buildDir != "" {
		return c.buildDir
	}
	return filepath.Join(c.SourceDir, "build")
}

func (c *CMake) run(args []string) error {
	return c.runner.Run(execx.Command{Name: c.bin, Args: args, Env: c.env})
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}
