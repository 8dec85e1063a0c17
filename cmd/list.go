package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/ginjarator/internal/config"
	"github.com/conneroisu/ginjarator/internal/paths"
)

var listFormat string

type listOutput struct {
	SourcePaths    []string `json:"source_paths" yaml:"source_paths"`
	BuildPaths     []string `json:"build_paths" yaml:"build_paths"`
	Templates      []string `json:"templates" yaml:"templates"`
	NinjaTemplates []string `json:"ninja_templates" yaml:"ninja_templates"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the project's configured paths and templates",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(filepath.Join(projectRoot(), paths.Config.String()))
		if err != nil {
			return fmt.Errorf("read %s: %w", paths.Config, err)
		}
		cfg, err := config.Parse(raw)
		if err != nil {
			return err
		}
		out := listOutput{
			SourcePaths:    pathStrings(cfg.SourcePaths),
			BuildPaths:     pathStrings(cfg.BuildPaths),
			Templates:      pathStrings(cfg.Templates),
			NinjaTemplates: pathStrings(cfg.NinjaTemplates),
		}
		switch listFormat {
		case "json":
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		case "yaml":
			encoded, err := yaml.Marshal(out)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(encoded))
		case "text":
			printSection(cmd, "source_paths", out.SourcePaths)
			printSection(cmd, "build_paths", out.BuildPaths)
			printSection(cmd, "templates", out.Templates)
			printSection(cmd, "ninja_templates", out.NinjaTemplates)
		default:
			return fmt.Errorf("unknown format %q (want text, json, or yaml)", listFormat)
		}
		return nil
	},
}

func printSection(cmd *cobra.Command, name string, values []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", name)
	for _, value := range values {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", value)
	}
}

func pathStrings(in []paths.FS) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = string(p)
	}
	return out
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(listCmd)
}
