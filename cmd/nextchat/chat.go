package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextchat-ai/nextchat/pkg/conversation"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var (
		model      string
		sessionID  string
		attachment string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if model == "" {
				model = a.settings.SelectedModel()
			}
			var sendOpts []conversation.SendOption
			if attachment != "" {
				sendOpts = append(sendOpts, conversation.WithAttachment(attachment))
			}

			msg, err := a.conv.Send(ctx, sessionID, strings.Join(args, " "), model, sendOpts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", roleLabel(string(msg.Role)), dateStyle.Render("("+msg.Model+")"), msg.Content)
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model id (defaults to the selected model)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (defaults to the current session)")
	cmd.Flags().StringVar(&attachment, "attach", "", "name of an attached file")
	return cmd
}
