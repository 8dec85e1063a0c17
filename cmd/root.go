// Package cmd provides the ginjarator command-line interface.
//
// Configuration precedence, highest first: command-line flags, environment
// variables with the GINJARATOR_ prefix (GINJARATOR_LOG_LEVEL and so on),
// then defaults. Project configuration itself always comes from
// ginjarator.toml at the project root; the flags here only control where the
// root is and how the tool logs.
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/ginjarator/internal/logging"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ginjarator",
	Short: "Render templates through the ninja build system",
	Long: `Ginjarator drives template rendering through ninja.

Projects declare source paths, build paths, and templates in ginjarator.toml.
"ginjarator init" generates build.ninja; ninja then calls "ginjarator scan"
and "ginjarator render" per template as build edges, with dependencies
discovered during scanning fed back through depfiles and dyndep files.

Quick start:
  ginjarator init                 Generate build.ninja from ginjarator.toml
  ninja                           Scan and render everything
  ginjarator list                 Show the configured templates and paths
  ginjarator watch                Regenerate build files on source changes`,
	SilenceUsage: true,
}

// Execute runs the root command. It is exported so projects embedding
// ginjarator can register template helpers in their own main before calling
// it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("root", "C", ".", "project root directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text or json)")
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	viper.SetEnvPrefix("GINJARATOR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func projectRoot() string {
	return viper.GetString("root")
}

func newLogger(component string) (logging.Logger, error) {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    viper.GetString("log-format"),
		Output:    os.Stderr,
		Component: component,
	}), nil
}
