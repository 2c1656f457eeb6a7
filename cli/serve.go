package cli

import (
	"github.com/spf13/cobra"

	"github.com/verdicthq/verdict/engine/infra/server"
)

// ServeCmd starts the HTTP API server.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the verdict HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			srv, err := server.NewServer(ctx)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().String("host", "", "bind address (overrides config)")
	cmd.Flags().Int("port", 0, "listen port (overrides config)")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return applyServerFlagOverrides(cmd)
	}
	return cmd
}

func applyServerFlagOverrides(cmd *cobra.Command) error {
	cfg, err := commandConfig(cmd.Context())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	return nil
}
