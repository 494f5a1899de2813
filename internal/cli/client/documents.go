package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	S3Key       string `json:"s3Key"`
	UploadedBy  string `json:"uploadedBy,omitempty"`
	Processed   bool   `json:"processed"`
	CreatedAt   string `json:"createdAt"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

type DocumentList struct {
	Documents []Document `json:"documents"`
	Cursor    string     `json:"cursor,omitempty"`
	HasMore   bool       `json:"hasMore"`
}

func (c *APIClient) ListDocuments(ctx context.Context, cursor string, limit int) (*DocumentList, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp DocumentList
	if err := c.Get(ctx, "/documents", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) DeleteDocument(ctx context.Context, id string) error {
	return c.Delete(ctx, "/documents/"+url.PathEscape(id))
}

func DocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List or delete documents",
	}

	var (
		limit  int
		cursor string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := client.ListDocuments(cmd.Context(), cursor, limit)
			if err != nil {
				return err
			}
			return printDocumentList(cmd.OutOrStdout(), resp, outputJSON)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	list.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if err := client.DeleteDocument(cmd.Context(), args[0]); err != nil {
				if IsNotFound(err) {
					return fmt.Errorf("document %s not found", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document deleted: %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func printDocumentList(w io.Writer, resp *DocumentList, outputJSON bool) error {
	if outputJSON {
		data, _ := json.MarshalIndent(resp, "", "  ")
		_, err := fmt.Fprintln(w, string(data))
		return err
	}

	if len(resp.Documents) == 0 {
		fmt.Fprintln(w, "No documents found")
		return nil
	}
	for _, d := range resp.Documents {
		status := "pending"
		if d.Processed {
			status = "processed"
		}
		fmt.Fprintf(w, "%s  %-9s  %s  %s\n", d.ID, status, d.CreatedAt, d.Title)
	}
	if resp.HasMore {
		fmt.Fprintf(w, "\nMore results available. Use --cursor %s\n", resp.Cursor)
	}
	return nil
}

