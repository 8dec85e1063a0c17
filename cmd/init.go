package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/ginjarator/internal/project"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Initialize a project and generate its build files",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger("init")
		if err != nil {
			return err
		}
		root := projectRoot()
		if err := project.Init(root); err != nil {
			log.Error(cmd.Context(), err, "init failed", "root", root)
			return err
		}
		log.Debug(cmd.Context(), "generated build files", "root", root)
		return nil
	},
}

var minimalConfigCmd = &cobra.Command{
	Use:   "minimal-config",
	Short: "Generate the minimal config cache. This generally shouldn't be called manually.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return project.MinimalConfig(projectRoot())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(minimalConfigCmd)
}
