package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/logger"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/spf13/cobra"
)

// AskCmd runs the query pipeline once in-process, without the HTTP server.
func AskCmd() *cobra.Command {
	var (
		topK         int
		documentIDs  []string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question against the index",
		Long:  "Run the retrieval and answer pipeline once using the server configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logger.FromFormat(cfg.LogFormat, cfg.Debug)

			pool, err := getDBPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			comps, err := buildComponents(ctx, cfg, pool, log, true)
			if err != nil {
				return err
			}
			defer comps.Close()

			ctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
			defer cancel()

			result, err := comps.queries.AnswerQuery(ctx, service.QueryInput{
				Query:       strings.Join(args, " "),
				TopK:        topK,
				DocumentIDs: documentIDs,
			})
			if err != nil {
				return err
			}

			return printAnswer(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to retrieve (0 uses DOCQA_TOP_K)")
	cmd.Flags().StringSliceVar(&documentIDs, "document", nil, "Document ID to echo with the answer (repeatable)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text or json)")

	return withServerEnv(cmd)
}

func printAnswer(w io.Writer, result *domain.QueryResult, outputFormat string) error {
	if outputFormat == "json" {
		chunks := make([]map[string]interface{}, len(result.MatchedChunks))
		for i, c := range result.MatchedChunks {
			chunks[i] = map[string]interface{}{
				"content":    c.Content,
				"documentId": c.DocumentID,
				"chunkIndex": c.ChunkIndex,
				"distance":   c.Distance,
			}
		}
		data := map[string]interface{}{
			"query":         result.Query,
			"answer":        result.Answer,
			"documentsIds":  result.DocumentIDs,
			"matchedChunks": chunks,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		_, err := fmt.Fprintln(w, string(jsonBytes))
		return err
	}

	fmt.Fprintln(w, result.Answer)
	if len(result.MatchedChunks) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for i, c := range result.MatchedChunks {
		fmt.Fprintf(w, "  %d. %s#%d (distance %.4f)\n", i+1, c.DocumentID, c.ChunkIndex, c.Distance)
	}
	return nil
}
