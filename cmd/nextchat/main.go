package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "nextchat",
		Short:         "nextchat: chat with OpenAI, Gemini, ERNIE, Qwen and GLM models",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "nextchat.yaml", "path to config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newChatCmd(opts),
		newSessionsCmd(opts),
		newModelsCmd(opts),
		newSettingsCmd(opts),
		newCacheCmd(opts),
		newImageCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
	)
	return root
}
