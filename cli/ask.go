package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/verdicthq/verdict/engine/answer"
)

var (
	answerStyle     = lipgloss.NewStyle().Bold(true)
	metaStyle       = lipgloss.NewStyle().Faint(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	confidenceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// AskCmd submits a single question to a running server.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask \"question\"",
		Short: "Ask a one-shot question",
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
			refine, _ := cmd.Flags().GetBool("refine")
			env, err := client.Ask(cmd.Context(), args[0], refine)
			if err != nil {
				return err
			}
			if cfg.CLI.JSONOutput {
				return printEnvelopeJSON(cmd, env)
			}
			printEnvelope(cmd, env, cfg.CLI.Quiet)
			return nil
		},
	}
	cmd.Flags().Bool("refine", false, "polish the answer through the generative refiner")
	return cmd
}

func printEnvelopeJSON(cmd *cobra.Command, env *answer.Envelope) error {
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	cmd.Println(string(payload))
	return nil
}

func printEnvelope(cmd *cobra.Command, env *answer.Envelope, quiet bool) {
	if env.IsError() {
		cmd.Println(errorStyle.Render("error: " + env.Error))
		return
	}
	cmd.Println(answerStyle.Render(env.Answer))
	if quiet {
		return
	}
	meta := []string{
		fmt.Sprintf("backend: %s", env.BackendID),
		fmt.Sprintf("source: %s", env.Source),
	}
	if env.ReframedQuestion != "" {
		meta = append(meta, fmt.Sprintf("reframed: %s", env.ReframedQuestion))
	}
	cmd.Println(metaStyle.Render(strings.Join(meta, " | ")))
	cmd.Println(confidenceStyle.Render(fmt.Sprintf("confidence: %.2f", env.Confidence)))
}
