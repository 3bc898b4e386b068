package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragbot/internal/service"
)

func newBuildCommand() *cobra.Command {
	var contentPath string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the vector index from the knowledge base content",
		Long: `Load the content file or document directory, split it into chunks,
generate embeddings, and persist the vector index with its chunk list and
metadata. Any existing index is wholly replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := service.New(cfg)
			if err != nil {
				return err
			}
			fmt.Println("Building vector index...")
			stats, err := svc.Build(contentPath)
			if err != nil {
				return err
			}
			fmt.Println("Index build complete.")
			fmt.Printf("  Total chunks:        %d\n", stats.TotalChunks)
			fmt.Printf("  Embedding dimension: %d\n", stats.EmbeddingDimension)
			fmt.Printf("  Index size:          %d vectors\n", stats.IndexSize)
			return nil
		},
	}
	cmd.Flags().StringVar(&contentPath, "content", "", "content file or document directory (defaults to the configured path)")
	return cmd
}
