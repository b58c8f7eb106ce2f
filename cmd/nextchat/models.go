package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextchat-ai/nextchat/pkg/catalog"
	"github.com/nextchat-ai/nextchat/pkg/config"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only the config is needed to mark the default; skip storage.
			cfg, err := config.LoadOrDefault(opts.configPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, headerStyle.Render("ID")+"\t"+headerStyle.Render("NAME")+"\t"+headerStyle.Render("PROVIDER")+"\t"+headerStyle.Render("DESCRIPTION"))
			for _, m := range catalog.All() {
				id := m.ID
				if id == cfg.DefaultModel {
					id = successStyle.Render(id + " (default)")
				}
				desc := m.Description
				if !m.Supported() {
					desc = mutedStyle.Render(desc + " [simulated]")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, m.Name, m.Provider, desc)
			}
			return w.Flush()
		},
	}
}
