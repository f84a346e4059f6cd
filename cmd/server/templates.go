package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/domain/template"
)

func newTemplatesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available starter templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := template.NewCatalog(cfg.Templates.Root, zap.NewNop())
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}
			return printTemplates(cmd, catalog)
		},
	}
}

func printTemplates(cmd *cobra.Command, catalog *template.Catalog) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEMPLATE\tTITLE\tFOLDER\tDESCRIPTION")
	fmt.Fprintln(w, "--------\t-----\t------\t-----------")

	for _, t := range catalog.List() {
		folder := t.Folder
		if folder == "" {
			folder = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Kind, t.Title, folder, t.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "\nsource: %s\n", catalog.Source())
	return err
}
