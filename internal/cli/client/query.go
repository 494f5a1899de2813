package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type QueryRequest struct {
	Query        string   `json:"query"`
	DocumentsIDs []string `json:"documentsIds"`
	TopK         int      `json:"topK,omitempty"`
}

type MatchedChunk struct {
	Content    string `json:"content"`
	DocumentID string `json:"documentId"`
	ChunkIndex int    `json:"chunkIndex"`
}

type QueryResponse struct {
	Query         string         `json:"query"`
	Answer        string         `json:"answer"`
	DocumentsIDs  []string       `json:"documentsIds"`
	MatchedChunks []MatchedChunk `json:"matchedChunks"`
}

// Query asks the server a question.
func (c *APIClient) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.DocumentsIDs == nil {
		req.DocumentsIDs = []string{}
	}
	var resp QueryResponse
	if err := c.Post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func QueryCmd() *cobra.Command {
	var (
		topK        int
		documentIDs []string
		showSources bool
	)

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the ingested documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := client.Query(cmd.Context(), QueryRequest{
				Query:        strings.Join(args, " "),
				DocumentsIDs: documentIDs,
				TopK:         topK,
			})
			if err != nil {
				return err
			}

			return printQueryResponse(cmd.OutOrStdout(), resp, outputJSON, showSources)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to retrieve (server default when 0)")
	cmd.Flags().StringSliceVar(&documentIDs, "document", nil, "Document ID to send with the question (repeatable)")
	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the matched chunks")

	return cmd
}

func printQueryResponse(w io.Writer, resp *QueryResponse, outputJSON, showSources bool) error {
	if outputJSON {
		data, _ := json.MarshalIndent(resp, "", "  ")
		_, err := fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintln(w, resp.Answer)
	if !showSources {
		return nil
	}
	for i, c := range resp.MatchedChunks {
		fmt.Fprintf(w, "\n[%d] %s#%d\n%s\n", i+1, c.DocumentID, c.ChunkIndex, c.Content)
	}
	return nil
}
