// Package config loads recastbind settings from defaults, an optional TOML
// file, RECASTBIND_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/goplus/recastbind/internal/capability"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = "recastbind.toml"
	// EnvPrefix prefixes environment overrides, e.g. RECASTBIND_FEATURES.
	EnvPrefix = "RECASTBIND"
)

// Config is the complete tool configuration.
type Config struct {
	Features  []string `mapstructure:"features" toml:"features"`
	SourceDir string   `mapstructure:"source_dir" toml:"source_dir"`
	ShimDir   string   `mapstructure:"shim_dir" toml:"shim_dir"`
	OutDir    string   `mapstructure:"out_dir" toml:"out_dir,omitempty"`
	CXXFlags  []string `mapstructure:"cxxflags" toml:"cxxflags"`
	// Defines are NAME or NAME=VALUE macros seen by every stage.
	Defines []string `mapstructure:"defines" toml:"defines,omitempty"`

	Link    Link    `mapstructure:"link" toml:"link"`
	Tools   Tools   `mapstructure:"tools" toml:"tools"`
	CMake   CMake   `mapstructure:"cmake" toml:"cmake"`
	Bindgen Bindgen `mapstructure:"bindgen" toml:"bindgen"`
}

// Link controls how link directives are written.
type Link struct {
	Format     string `mapstructure:"format" toml:"format"`
	CgoPackage string `mapstructure:"cgo_package" toml:"cgo_package"`
	CgoFile    string `mapstructure:"cgo_file" toml:"cgo_file,omitempty"`
}

// Tools names the external executables.
type Tools struct {
	CMake   string `mapstructure:"cmake" toml:"cmake"`
	CXX     string `mapstructure:"cxx" toml:"cxx,omitempty"`
	AR      string `mapstructure:"ar" toml:"ar,omitempty"`
	Bindgen string `mapstructure:"bindgen" toml:"bindgen"`
}

// CMake holds extra native build settings.
type CMake struct {
	Generator     string `mapstructure:"generator" toml:"generator,omitempty"`
	ToolchainFile string `mapstructure:"toolchain_file" toml:"toolchain_file,omitempty"`
	// Defines are NAME=VALUE cache entries. A list rather than a table
	// keeps the case of the names intact through viper.
	Defines []string `mapstructure:"defines" toml:"defines,omitempty"`
}

// DefineMap splits Defines into names and values.
func (c CMake) DefineMap() (map[string]string, error) {
	if len(c.Defines) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(c.Defines))
	for _, d := range c.Defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("cmake.defines: %q is not NAME=VALUE", d)
		}
		m[name] = value
	}
	return m, nil
}

// Bindgen holds binding generator settings.
type Bindgen struct {
	MinVersion string `mapstructure:"min_version" toml:"min_version"`
	Extension  string `mapstructure:"extension" toml:"extension"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Features:  []string{"mesh-build", "pathfinding-core", "crowd-pathfinding", "tile-cache-pathfinding"},
		SourceDir: "recastnavigation",
		ShimDir:   "inline_lib_src",
		Link: Link{
			Format:     "cargo",
			CgoPackage: "recast",
		},
		Tools: Tools{
			CMake:   "cmake",
			Bindgen: "bindgen",
		},
		Bindgen: Bindgen{
			MinVersion: "0.64.0",
			Extension:  "rs",
		},
	}
}

// LoadOptions selects the config source.
type LoadOptions struct {
	// File is an explicit config path; it must exist. When empty,
	// FileName in the working directory is used if present.
	File string
	// Viper, when set, is used instead of a fresh instance so that callers
	// can bind command-line flags before loading.
	Viper *viper.Viper
}

// Load resolves the configuration and returns it with the path of the file
// that was read, or "" when none was.
func Load(opts LoadOptions) (*Config, string, error) {
	v := opts.Viper
	if v == nil {
		v = viper.New()
	}
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.File
	if path == "" {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, "", fmt.Errorf("config file: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("features", d.Features)
	v.SetDefault("source_dir", d.SourceDir)
	v.SetDefault("shim_dir", d.ShimDir)
	v.SetDefault("out_dir", d.OutDir)
	v.SetDefault("cxxflags", d.CXXFlags)
	v.SetDefault("defines", d.Defines)
	v.SetDefault("link.format", d.Link.Format)
	v.SetDefault("link.cgo_package", d.Link.CgoPackage)
	v.SetDefault("link.cgo_file", d.Link.CgoFile)
	v.SetDefault("tools.cmake", d.Tools.CMake)
	v.SetDefault("tools.cxx", d.Tools.CXX)
	v.SetDefault("tools.ar", d.Tools.AR)
	v.SetDefault("tools.bindgen", d.Tools.Bindgen)
	v.SetDefault("cmake.generator", d.CMake.Generator)
	v.SetDefault("cmake.toolchain_file", d.CMake.ToolchainFile)
	v.SetDefault("cmake.defines", d.CMake.Defines)
	v.SetDefault("bindgen.min_version", d.Bindgen.MinVersion)
	v.SetDefault("bindgen.extension", d.Bindgen.Extension)
}

// Validate checks values viper cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.SourceDir == "" {
		errs = append(errs, errors.New("source_dir must not be empty"))
	}
	if c.ShimDir == "" {
		errs = append(errs, errors.New("shim_dir must not be empty"))
	}
	switch c.Link.Format {
	case "cargo", "cgo", "json":
	default:
		errs = append(errs, fmt.Errorf("link.format %q is not one of cargo, cgo, json", c.Link.Format))
	}
	if _, err := capability.ParseDefines(c.Defines); err != nil {
		errs = append(errs, fmt.Errorf("defines: %w", err))
	}
	if _, err := c.CMake.DefineMap(); err != nil {
		errs = append(errs, err)
	}
	if c.Bindgen.Extension == "" {
		errs = append(errs, errors.New("bindgen.extension must not be empty"))
	}
	return errors.Join(errs...)
}

// Marshal renders c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Write stores c as TOML at path, refusing to overwrite unless force is set.
func (c *Config) Write(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
