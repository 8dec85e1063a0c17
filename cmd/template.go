package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/ginjarator/internal/paths"
	"github.com/conneroisu/ginjarator/internal/template"
)

var scanCmd = &cobra.Command{
	Use:   "scan <template>",
	Short: "Scan a template. This generally shouldn't be called manually.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger("scan")
		if err != nil {
			return err
		}
		templatePath := paths.New(args[0])
		if err := template.Scan(projectRoot(), templatePath); err != nil {
			log.Error(cmd.Context(), err, "scan failed", "template", string(templatePath))
			return err
		}
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <template>",
	Short: "Render a template. This generally shouldn't be called manually.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger("render")
		if err != nil {
			return err
		}
		templatePath := paths.New(args[0])
		if err := template.Render(projectRoot(), templatePath); err != nil {
			log.Error(cmd.Context(), err, "render failed", "template", string(templatePath))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(renderCmd)
}
