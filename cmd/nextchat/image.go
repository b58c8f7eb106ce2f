package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newImageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate an image and print its URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			url, err := a.images.Generate(cmd.Context(), a.settings.APIKey(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}
