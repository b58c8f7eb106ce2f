package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nextchat-ai/nextchat/pkg/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve chat tools over MCP (stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.New(a.conv, a.cache, a.settings, a.logger.Named("mcp"), version)
			return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
