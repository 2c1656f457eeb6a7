package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initFormData holds the answers collected by the init wizard.
type initFormData struct {
	Host               string
	Port               string
	Threshold          string
	SimilarityProvider string
	SimilarityPath     string
	GraphPath          string
	LLMProvider        string
	LLMModel           string
	EmbedderModel      string
	EnableWikipedia    bool
	EnableMonitoring   bool
}

// InitCmd runs an interactive wizard that writes verdict.yaml.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a verdict.yaml configuration interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}
			data := defaultInitFormData()
			if err := newInitForm(&data).Run(); err != nil {
				return fmt.Errorf("wizard aborted: %w", err)
			}
			document, err := renderInitConfig(&data)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, document, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			cmd.Printf("Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().String("output", "verdict.yaml", "destination file")
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func defaultInitFormData() initFormData {
	return initFormData{
		Host:               "0.0.0.0",
		Port:               "8080",
		Threshold:          "0.5",
		SimilarityProvider: "filesystem",
		SimilarityPath:     "./data/vectors.json",
		GraphPath:          "./data/graph.json",
		LLMProvider:        "openai",
		LLMModel:           "gpt-4o-mini",
		EmbedderModel:      "text-embedding-3-small",
	}
}

func newInitForm(data *initFormData) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server host").
				Value(&data.Host),
			huh.NewInput().
				Title("Server port").
				Validate(validatePort).
				Value(&data.Port),
			huh.NewInput().
				Title("Confidence threshold").
				Description("Answers below this confidence escalate to the fallback").
				Validate(validateThreshold).
				Value(&data.Threshold),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Vector store provider").
				Options(
					huh.NewOption("Filesystem (no dependencies)", "filesystem"),
					huh.NewOption("PostgreSQL + pgvector", "pgvector"),
					huh.NewOption("Redis vector sets", "redis"),
				).
				Value(&data.SimilarityProvider),
			huh.NewInput().
				Title("Vector store path").
				Description("Used by the filesystem provider").
				Value(&data.SimilarityPath),
			huh.NewInput().
				Title("Knowledge graph snapshot path").
				Value(&data.GraphPath),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("LLM provider").
				Options(
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Anthropic", "anthropic"),
					huh.NewOption("Ollama", "ollama"),
				).
				Value(&data.LLMProvider),
			huh.NewInput().
				Title("LLM model").
				Value(&data.LLMModel),
			huh.NewInput().
				Title("Embedding model").
				Value(&data.EmbedderModel),
			huh.NewConfirm().
				Title("Enable the Wikipedia backend?").
				Value(&data.EnableWikipedia),
			huh.NewConfirm().
				Title("Enable Prometheus metrics?").
				Value(&data.EnableMonitoring),
		),
	)
}

func validatePort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateThreshold(value string) error {
	threshold, err := strconv.ParseFloat(value, 64)
	if err != nil || threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be a number between 0 and 1")
	}
	return nil
}

func renderInitConfig(data *initFormData) ([]byte, error) {
	port, err := strconv.Atoi(data.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", data.Port, err)
	}
	threshold, err := strconv.ParseFloat(data.Threshold, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid threshold %q: %w", data.Threshold, err)
	}
	document := map[string]any{
		"server": map[string]any{
			"host": data.Host,
			"port": port,
		},
		"orchestrator": map[string]any{
			"confidence_threshold": threshold,
		},
		"similarity": map[string]any{
			"provider": data.SimilarityProvider,
			"path":     data.SimilarityPath,
		},
		"graph": map[string]any{
			"path": data.GraphPath,
		},
		"llm": map[string]any{
			"provider": data.LLMProvider,
			"model":    data.LLMModel,
		},
		"embedder": map[string]any{
			"model": data.EmbedderModel,
		},
		"wikipedia": map[string]any{
			"enabled": data.EnableWikipedia,
		},
		"monitoring": map[string]any{
			"enabled": data.EnableMonitoring,
		},
	}
	payload, err := yaml.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("marshal configuration: %w", err)
	}
	return payload, nil
}
