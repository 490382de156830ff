package internal

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goplus/recastbind/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "recastbind",
	Short: "recastbind builds recastnavigation and generates its bindings",
	Long: `recastbind compiles the recastnavigation modules selected by the enabled
features, compiles the inline shim when needed, generates bindings and prints
the link directives for the invoking build.`,
	SilenceUsage: true,
}

// configFlags maps command-line flags to configuration keys.
var configFlags = map[string]string{
	"features":   "features",
	"source-dir": "source_dir",
	"shim-dir":   "shim_dir",
	"out-dir":    "out_dir",
	"format":     "link.format",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./"+config.FileName+")")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringSlice("features", nil, "Capabilities to build, e.g. mesh-build,pathfinding-core")
	pf.String("source-dir", "", "recastnavigation source tree")
	pf.String("shim-dir", "", "Directory holding inline.cc and inline.h")
	pf.String("out-dir", "", "Output directory")
	pf.String("format", "", "Directive format: cargo, cgo or json")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// newLogger writes to stderr; stdout carries the directives.
func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "recastbind",
		Level:  level,
	})
}

// loadConfig resolves the configuration with the flags of cmd on top.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	v := viper.New()
	for name, key := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, "", err
			}
		}
	}
	return config.Load(config.LoadOptions{File: cfgFile, Viper: v})
}
