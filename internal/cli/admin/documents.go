package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/logger"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/spf13/cobra"
)

func DocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage ingested documents",
		Long:  "List and delete documents directly against the database",
	}

	cmd.AddCommand(DocumentsListCmd())
	cmd.AddCommand(DocumentsDeleteCmd())

	return withServerEnv(cmd)
}

func DocumentsListCmd() *cobra.Command {
	var (
		limit        int
		cursor       string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Long:  "List ingested documents, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocuments(func(ctx context.Context, svc *service.DocumentService) error {
				page, err := svc.List(ctx, cursor, limit)
				if err != nil {
					return fmt.Errorf("failed to list documents: %w", err)
				}
				return printDocuments(cmd.OutOrStdout(), page, outputFormat)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultDocumentPageSize, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func DocumentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Long:  "Delete a document, its chunks and its raw object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocuments(func(ctx context.Context, svc *service.DocumentService) error {
				if err := svc.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete document: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Document deleted: %s\n", args[0])
				return nil
			})
		},
	}
}

func withDocuments(fn func(ctx context.Context, svc *service.DocumentService) error) error {
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

	comps, err := buildComponents(ctx, cfg, pool, log, false)
	if err != nil {
		return err
	}
	defer comps.Close()

	return fn(ctx, comps.documents)
}

func printDocuments(w io.Writer, page *service.DocumentPage, outputFormat string) error {
	if outputFormat == "json" {
		items := make([]map[string]interface{}, len(page.Items))
		for i, d := range page.Items {
			items[i] = map[string]interface{}{
				"id":         d.ID,
				"title":      d.Title,
				"s3_key":     d.S3Key,
				"processed":  d.Processed,
				"created_at": d.CreatedAt,
			}
			if d.DownloadURL != "" {
				items[i]["download_url"] = d.DownloadURL
			}
		}
		data := map[string]interface{}{
			"documents": items,
			"has_more":  page.HasMore,
		}
		if page.NextCursor != "" {
			data["cursor"] = page.NextCursor
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		_, err := fmt.Fprintln(w, string(jsonBytes))
		return err
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No documents found")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-9s  %-20s  %s\n", "ID", "PROCESSED", "CREATED", "TITLE")
	for _, d := range page.Items {
		fmt.Fprintf(w, "%-36s  %-9t  %-20s  %s\n", d.ID, d.Processed, d.CreatedAt.Format("2006-01-02 15:04:05"), d.Title)
	}
	if page.HasMore {
		fmt.Fprintf(w, "\nMore results available. Use --cursor %s\n", page.NextCursor)
	}
	return nil
}
