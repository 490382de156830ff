package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/recastbind/internal/config"
	"github.com/goplus/recastbind/internal/link"
	"github.com/goplus/recastbind/internal/platform"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// writeTree creates a source tree and shim directory holding every header
// the binding descriptors probe for.
func writeTree(t *testing.T, root string) (src, shimDir string) {
	t.Helper()
	headers := map[string][]string{
		"Recast":          {"Recast.h"},
		"Detour":          {"DetourAlloc.h", "DetourStatus.h", "DetourNavMesh.h", "DetourNavMeshBuilder.h", "DetourNavMeshQuery.h"},
		"DetourCrowd":     {"DetourCrowd.h"},
		"DetourTileCache": {"DetourTileCache.h", "DetourTileCacheBuilder.h"},
	}
	src = filepath.Join(root, "recastnavigation")
	for module, files := range headers {
		dir := filepath.Join(src, module, "Include")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("#pragma once\n"), 0o644))
		}
	}
	shimDir = filepath.Join(root, "inline_lib_src")
	require.NoError(t, os.MkdirAll(shimDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shimDir, "inline.cc"), []byte("#include \"inline.h\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(shimDir, "inline.h"), []byte("#pragma once\n"), 0o644))
	return src, shimDir
}

func TestModulesCommand(t *testing.T) {
	out, err := execute(t, "modules")
	require.NoError(t, err)
	for _, want := range []string{"CAPABILITY", "Recast", "DetourTileCache", "DetourNavMeshQuery.h", "DT_POLYREF64"} {
		assert.Contains(t, out, want)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+config.FileName)
	_, err = os.Stat(config.FileName)
	require.NoError(t, err)

	_, err = execute(t, "config", "init")
	require.Error(t, err, "an existing file must not be overwritten")

	out, err = execute(t, "config", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "# from "+config.FileName)
	assert.Contains(t, out, "json")
	assert.Contains(t, out, "0.64.0")
}

func TestPlanCommand(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	src, shimDir := writeTree(t, root)
	outDir := filepath.Join(root, "out")

	out, err := execute(t, "plan",
		"--features", "mesh-build,pathfinding-core",
		"--source-dir", src,
		"--shim-dir", shimDir,
		"--out-dir", outDir,
		"--format", "cargo",
		"--target", "x86_64-unknown-linux-gnu",
		"--opt-level", "0",
		"--toolchain", "stable-x86_64-unknown-linux-gnu",
	)
	require.NoError(t, err)
	for _, want := range []string{
		"# profile linux-x86_64-debug-stable",
		"-DRECASTNAVIGATION_DEMO:BOOL=OFF",
		"-DCMAKE_BUILD_TYPE",
		"ar crs",
		"--output",
		"cargo:rustc-link-lib=static=Recast-d",
		"cargo:rustc-link-lib=static=Detour-d",
		"cargo:rustc-link-lib=static=recast_inline",
		"cargo:rustc-link-lib=stdc++",
		"cargo:rerun-if-env-changed=" + platform.EnvOptLevel,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "DetourCrowd-d")

	_, err = os.Stat(outDir)
	assert.True(t, os.IsNotExist(err), "plan writes nothing to the output directory")
}

func TestPlanUnknownFeature(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := execute(t, "plan",
		"--features", "navmesh-magic",
		"--format", "cargo",
		"--target", "x86_64-unknown-linux-gnu",
		"--opt-level", "3",
		"--toolchain", "stable",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navmesh-magic")
}

func TestResolveOutDir(t *testing.T) {
	profile := platform.Profile{OS: "linux", Arch: "x86_64"}

	t.Run("config", func(t *testing.T) {
		dir, err := resolveOutDir(&config.Config{OutDir: "out"}, profile, false)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(dir))
		assert.Equal(t, "out", filepath.Base(dir))
	})
	t.Run("invoking build", func(t *testing.T) {
		t.Setenv("OUT_DIR", "/tmp/target/build/out")
		dir, err := resolveOutDir(&config.Config{}, profile, false)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/target/build/out", dir)
	})
	t.Run("cache", func(t *testing.T) {
		t.Setenv("OUT_DIR", "")
		dir, err := resolveOutDir(&config.Config{}, profile, false)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(dir, filepath.Join(".recastbind", profile.Key())), dir)
	})
}

func TestWriteDirectivesCgoFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "zlink.go")
	cfg := config.Default()
	cfg.Link.Format = link.FormatCgo
	cfg.Link.CgoPackage = "nav"
	cfg.Link.CgoFile = file

	d := &link.Directives{SearchPaths: []string{"/out/native/lib"}, StaticLibs: []string{"Detour"}, Runtime: "c++"}
	var stdout bytes.Buffer
	require.NoError(t, writeDirectives(&stdout, cfg, d))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package nav")
	assert.Contains(t, string(data), "// #cgo LDFLAGS: -L/out/native/lib -lDetour -lc++")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir on older Go).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	if abs, err := filepath.Abs(dir); err == nil {
		t.Setenv("PWD", abs)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
