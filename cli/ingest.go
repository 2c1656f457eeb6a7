package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IngestCmd sends a directory to the server's ingest pipeline.
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <directory>",
		Short: "Ingest a directory of documents into the vector store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd.Context())
			if err != nil {
				return err
			}
			client, err := NewAPIClient(cfg)
			if err != nil {
				return err
			}
			result, err := client.Ingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cfg.CLI.JSONOutput {
				payload, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal result: %w", err)
				}
				cmd.Println(string(payload))
				return nil
			}
			cmd.Printf("Ingested %d documents (%d chunks, %d persisted)\n",
				result.Documents, result.Chunks, result.Persisted)
			return nil
		},
	}
}
