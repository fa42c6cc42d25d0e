package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/krbops/renewhook/internal/hooks"
	"github.com/krbops/renewhook/internal/platform"
	"github.com/krbops/renewhook/internal/renewlock"
	"github.com/krbops/renewhook/internal/telemetry"
)

var (
	cfgFile      string
	lockPath     string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "renewhook",
	Short: "Service restart hooks for certificate renewal",
	Long: `renewhook restarts services after their certificates have been renewed,
serialized against other renewal work on the host through a shared renewal lock.
It is meant to be invoked as an unattended renewal-completion callback.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/renewhook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&lockPath, "lock-path", "", "renewal lock file (default from config or "+renewlock.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table, json or yaml")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/renewhook")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("renewhook")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("lock_path", renewlock.DefaultPath)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.target", "stderr")

	// A missing config file is fine; the defaults cover everything
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if lockPath == "" {
		lockPath = viper.GetString("lock_path")
	}
}

// GetLockPath returns the configured renewal lock path
func GetLockPath() string {
	return lockPath
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// IsYAMLOutput returns true if YAML output is requested
func IsYAMLOutput() bool {
	return outputFormat == "yaml"
}

// newLogger configures logging from config and makes it the default
func newLogger() *slog.Logger {
	logger, err := telemetry.Setup(telemetry.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
		Target: viper.GetString("log.target"),
	})
	if err != nil {
		// Fall back to stderr rather than losing the run's log lines
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		logger, _ = telemetry.Setup(telemetry.Config{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
			Target: "stderr",
		})
	}
	return logger
}

// newRegistry builds the hook registry with unit overrides from config
func newRegistry() *hooks.Registry {
	reg := hooks.NewRegistry()
	for name, unit := range viper.GetStringMapString("units") {
		reg.Override(name, unit)
	}
	return reg
}

// newManager picks the init-system backend, honoring a config override
func newManager() platform.Manager {
	if name := viper.GetString("platform"); name != "" {
		if mgr, ok := platform.ForName(name); ok {
			return mgr
		}
		fmt.Fprintf(os.Stderr, "Unknown platform %q, using detection\n", name)
	}
	return platform.Detect()
}
