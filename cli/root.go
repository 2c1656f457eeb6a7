package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/verdicthq/verdict/pkg/config"
	"github.com/verdicthq/verdict/pkg/logger"
)

// RootCmd builds the verdict command tree. Every subcommand receives a
// context carrying the loaded configuration manager and a logger.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "verdict",
		Short:         "Question-answering orchestration service",
		Long:          "Verdict answers natural-language questions by orchestrating similarity and knowledge-graph backends with a generative fallback.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupContext(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return teardownContext(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "path to the verdict.yaml configuration file")
	root.PersistentFlags().String("env-file", "", "path to a .env file loaded before configuration")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, disabled)")
	root.PersistentFlags().Bool("json", false, "emit machine-readable JSON output")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	root.AddCommand(
		ServeCmd(),
		AskCmd(),
		ChatCmd(),
		IngestCmd(),
		RoutesCmd(),
		InitCmd(),
		VersionCmd(),
	)
	return root
}

// setupContext loads the environment file, the configuration and the
// logger, then attaches them to the command context.
func setupContext(cmd *cobra.Command) error {
	loadEnvFile(cmd)

	flags := collectFlagOverrides(cmd)
	manager := config.NewManager(config.NewService())
	sources := []config.Source{config.NewDefaultProvider(), config.NewEnvProvider()}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		sources = append(sources, config.NewYAMLProvider(path))
	}
	if len(flags) > 0 {
		sources = append(sources, config.NewCLIProvider(flags))
	}
	ctx := cmd.Context()
	cfg, err := manager.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	log := logger.GetDefault()
	ctx = config.ContextWithManager(ctx, manager)
	ctx = logger.ContextWithLogger(ctx, log)
	cmd.SetContext(ctx)
	return nil
}

func teardownContext(cmd *cobra.Command) error {
	if manager := config.ManagerFromContext(cmd.Context()); manager != nil {
		return manager.Close(cmd.Context())
	}
	return nil
}

// loadEnvFile loads --env-file when given, else a .env in the working
// directory when one exists. Missing files are not an error.
func loadEnvFile(cmd *cobra.Command) {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load env file %s: %v\n", path, err)
	}
}

// collectFlagOverrides maps explicitly-set global flags onto config keys.
func collectFlagOverrides(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		flags["runtime.log_level"] = level
	}
	if cmd.Flags().Changed("json") {
		jsonOut, _ := cmd.Flags().GetBool("json")
		flags["cli.json_output"] = jsonOut
	}
	if cmd.Flags().Changed("quiet") {
		quiet, _ := cmd.Flags().GetBool("quiet")
		flags["cli.quiet"] = quiet
	}
	return flags
}

// commandConfig returns the loaded configuration for a subcommand.
func commandConfig(ctx context.Context) (*config.Config, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration missing from context")
	}
	return cfg, nil
}
