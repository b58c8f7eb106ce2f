package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change credentials and the selected model",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "API key:        %s\nSecret key:     %s\nSelected model: %s\n",
				presence(a.settings.APIKey()), presence(a.settings.SecretKey()), a.settings.SelectedModel())
			return nil
		},
	}

	var apiKey, secretKey, model string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("api-key") && !flags.Changed("secret-key") && !flags.Changed("model") {
				return fmt.Errorf("nothing to set: pass --api-key, --secret-key or --model")
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if flags.Changed("api-key") {
				if err := a.settings.SetAPIKey(ctx, apiKey); err != nil {
					return err
				}
			}
			if flags.Changed("secret-key") {
				if err := a.settings.SetSecretKey(ctx, secretKey); err != nil {
					return err
				}
			}
			if flags.Changed("model") {
				if err := a.settings.SetSelectedModel(ctx, model); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Settings saved."))
			return nil
		},
	}
	setCmd.Flags().StringVar(&apiKey, "api-key", "", "provider API key")
	setCmd.Flags().StringVar(&secretKey, "secret-key", "", "secret key (Baidu ERNIE)")
	setCmd.Flags().StringVarP(&model, "model", "m", "", "selected model id")

	cmd.AddCommand(showCmd, setCmd)
	return cmd
}

func presence(v string) string {
	if v == "" {
		return mutedStyle.Render("not set")
	}
	return successStyle.Render("set")
}
