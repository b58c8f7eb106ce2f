package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage chat sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions := a.conv.Sessions()
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No sessions found."))
				return nil
			}
			cur, _ := a.conv.Current()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, headerStyle.Render("ID")+"\t"+headerStyle.Render("TOPIC")+"\t"+headerStyle.Render("MESSAGES")+"\t"+headerStyle.Render("LAST UPDATE"))
			for _, s := range sessions {
				marker := " "
				if s.ID == cur.ID {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\t%s\t%d\t%s\n",
					marker, idStyle.Render(s.ID), s.Topic, len(s.Messages), dateStyle.Render(s.LastUpdate.Format("2006-01-02T15:04:05")))
			}
			return w.Flush()
		},
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create a session and make it current",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.conv.CreateSession(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Created session ")+idStyle.Render(s.ID))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print a session's messages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, ok := a.conv.Current()
			if len(args) == 1 {
				sess, err = a.conv.Session(args[0])
				if err != nil {
					return err
				}
			} else if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No sessions found."))
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n\n", headerStyle.Render(sess.Topic), idStyle.Render(sess.ID))
			if len(sess.Messages) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No messages yet."))
			}
			for _, m := range sess.Messages {
				fmt.Fprintf(out, "%s %s\n%s\n\n", roleLabel(string(m.Role)), dateStyle.Render(m.Date.Format("2006-01-02 15:04:05")), m.Content)
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.conv.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Session deleted."))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.conv.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Chat history cleared."))
			return nil
		},
	}

	cmd.AddCommand(listCmd, newCmd, showCmd, deleteCmd, clearCmd)
	return cmd
}
