package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goplus/recastbind/internal/bindgen"
	"github.com/goplus/recastbind/internal/capability"
	"github.com/goplus/recastbind/internal/config"
	"github.com/goplus/recastbind/internal/env"
	"github.com/goplus/recastbind/internal/execx"
	"github.com/goplus/recastbind/internal/link"
	"github.com/goplus/recastbind/internal/native"
	"github.com/goplus/recastbind/internal/pipeline"
	"github.com/goplus/recastbind/internal/platform"
	"github.com/goplus/recastbind/internal/shim"
)

var (
	buildForce bool

	targetFlag    string
	optLevelFlag  string
	toolchainFlag string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the selected modules and print link directives",
	Long: `Build reads the target profile from the environment of the invoking build
(TARGET, OPT_LEVEL, TOOLCHAIN or RUSTUP_TOOLCHAIN), builds the native modules,
compiles the shim, generates bindings and prints the link directives.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "Rebuild even when inputs are unchanged")
	addProfileFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&targetFlag, "target", "", "Target triple, overrides "+platform.EnvTarget)
	cmd.Flags().StringVar(&optLevelFlag, "opt-level", "", "Optimization level, overrides "+platform.EnvOptLevel)
	cmd.Flags().StringVar(&toolchainFlag, "toolchain", "", "Toolchain name, overrides "+platform.EnvToolchain)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()
	runner := execx.NewExec(logger)
	// Tool output must not mix with directives on stdout.
	runner.Stdout = os.Stderr

	p, in, err := prepare(cfg, runner, logger, true)
	if err != nil {
		return err
	}
	p.Force = buildForce
	res, err := p.Run(in)
	if err != nil {
		return err
	}
	if res.UpToDate {
		logger.Debug("reusing previous outputs", "bindings", len(res.Bindings))
	}
	return writeDirectives(cmd.OutOrStdout(), cfg, res.Directives)
}

// captureProfile reads the profile from the environment, letting the
// profile flags take precedence.
func captureProfile() (platform.Profile, []string, error) {
	overrides := map[string]string{
		platform.EnvTarget:    targetFlag,
		platform.EnvOptLevel:  optLevelFlag,
		platform.EnvToolchain: toolchainFlag,
	}
	return platform.Capture(func(key string) (string, bool) {
		if v := overrides[key]; v != "" {
			return v, true
		}
		return os.LookupEnv(key)
	})
}

// prepare assembles the pipeline and its input from cfg. createOut controls
// whether the default output directory may be created.
func prepare(cfg *config.Config, runner execx.Runner, logger *log.Logger, createOut bool) (*pipeline.Pipeline, pipeline.Input, error) {
	profile, warnings, err := captureProfile()
	if err != nil {
		return nil, pipeline.Input{}, err
	}
	set, err := capability.Parse(cfg.Features)
	if err != nil {
		return nil, pipeline.Input{}, err
	}
	outDir, err := resolveOutDir(cfg, profile, createOut)
	if err != nil {
		return nil, pipeline.Input{}, fmt.Errorf("output directory: %w", err)
	}
	extra, err := cfg.CMake.DefineMap()
	if err != nil {
		return nil, pipeline.Input{}, err
	}
	defines, err := capability.ParseDefines(cfg.Defines)
	if err != nil {
		return nil, pipeline.Input{}, err
	}

	p := &pipeline.Pipeline{
		SourceDir: cfg.SourceDir,
		ShimDir:   cfg.ShimDir,
		OutDir:    outDir,
		Native: &native.Driver{
			Runner:    runner,
			CMake:     cfg.Tools.CMake,
			Generator: cfg.CMake.Generator,
			Toolchain: cfg.CMake.ToolchainFile,
			CXX:       cfg.Tools.CXX,
			Extra:     extra,
		},
		Shim: &shim.Compiler{
			Runner: runner,
			CXX:    cfg.Tools.CXX,
			AR:     cfg.Tools.AR,
			Flags:  cfg.CXXFlags,
		},
		Bindgen: &bindgen.Bindgen{
			Runner: runner,
			Bin:    cfg.Tools.Bindgen,
		},
		MinBindgenVersion: cfg.Bindgen.MinVersion,
		BindingExt:        cfg.Bindgen.Extension,
		Logger:            logger,
	}
	in := pipeline.Input{
		Capabilities:    set,
		Profile:         profile,
		ProfileWarnings: warnings,
		Defines:         defines,
	}
	return p, in, nil
}

// resolveOutDir picks out_dir from the config, then OUT_DIR of the invoking
// build, then the per-user cache.
func resolveOutDir(cfg *config.Config, profile platform.Profile, create bool) (string, error) {
	if cfg.OutDir != "" {
		return filepath.Abs(cfg.OutDir)
	}
	if dir := os.Getenv("OUT_DIR"); dir != "" {
		return dir, nil
	}
	if create {
		return env.OutDir(profile)
	}
	root, err := env.WorkDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, profile.Key()), nil
}

// writeDirectives prints d, or stores it in link.cgo_file for the cgo format.
func writeDirectives(stdout io.Writer, cfg *config.Config, d *link.Directives) error {
	if cfg.Link.Format == link.FormatCgo && cfg.Link.CgoFile != "" {
		f, err := os.Create(cfg.Link.CgoFile)
		if err != nil {
			return err
		}
		if err := link.Emit(f, d, cfg.Link.Format, cfg.Link.CgoPackage); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return link.Emit(stdout, d, cfg.Link.Format, cfg.Link.CgoPackage)
}
