package client

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (c *APIClient) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.Get(ctx, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its database are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s (%s)\n", resp.Status, client.baseURL, resp.Timestamp)
			return nil
		},
	}
}
