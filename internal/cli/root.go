// Package cli implements the ragbot command-line interface.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"ragbot/internal/config"
)

var cfgFile string

// NewRootCommand creates the root command.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ragbot",
		Short: "Retrieval-augmented knowledge base assistant",
		Long: `ragbot ingests documents, builds a vector index over text chunks, and
answers natural-language questions by retrieving relevant chunks and
forwarding them as context to a chat-completion service.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// loadConfig resolves the configuration from --config or the default search
// path.
func loadConfig() (*config.AppConfig, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version == "" {
				version = "dev"
			}
			fmt.Printf("ragbot %s (%s) built on %s\n", version, commit, date)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
