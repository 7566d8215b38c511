package internal

import (
	"errors"
	"os"
	"runtime"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/nativeprep/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "nativeprep",
	Short: "nativeprep prepares native dependencies for a crate build",
	Long: `nativeprep builds the native libraries a crate links against, generates
schema bindings, emits link directives for the host build system and
describes the crate's own C++ compilation unit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default "+config.ConfigFileName+", falling back to built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config named by --config. Without the flag,
// nativeprep.yaml in the working directory is used if present; otherwise
// the built-in layout for the current platform applies, rooted at the
// working directory's parent.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, err := config.Load(config.ConfigFileName)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, config.ErrConfigNotFound) {
		return nil, err
	}

	log.Debugf("%s not found, using defaults for %s", config.ConfigFileName, runtime.GOOS)
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg = config.Default(runtime.GOOS)
	if err := cfg.Abs(wd); err != nil {
		return nil, err
	}
	return cfg, nil
}
