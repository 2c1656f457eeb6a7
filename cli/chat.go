package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verdicthq/verdict/cli/tui"
	"github.com/verdicthq/verdict/engine/answer"
)

// ChatCmd opens an interactive terminal chat against a running server.
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with verdict interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := commandConfig(cmd.Context())
			if err != nil {
				return err
			}
			client, err := NewAPIClient(cfg)
			if err != nil {
				return err
			}
			refine, _ := cmd.Flags().GetBool("refine")
			asker := func(ctx context.Context, question string) (*answer.Envelope, error) {
				return client.Ask(ctx, question, refine)
			}
			model := tui.NewChat(cmd.Context(), asker)
			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("chat session failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("refine", false, "polish answers through the generative refiner")
	return cmd
}
