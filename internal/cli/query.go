package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragbot/internal/service"
)

const snippetLength = 160

func newQueryCommand() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run retrieval without the LLM and print ranked chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := service.New(cfg)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			results, err := svc.Retrieve(query, topK)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No results found")
				return nil
			}
			for _, res := range results {
				fmt.Printf("%d. [%s] score=%.3f distance=%.3f\n", res.Rank, res.Section, res.Score, res.Distance)
				fmt.Printf("   %s\n", snippet(res.Text))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve (defaults to the configured value)")
	return cmd
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
