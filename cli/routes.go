package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// RoutesCmd prints the exact-match route table.
func RoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the exact-match question routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := commandConfig(cmd.Context())
			if err != nil {
				return err
			}
			client, err := NewAPIClient(cfg)
			if err != nil {
				return err
			}
			routes, err := client.Routes(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.CLI.JSONOutput {
				payload, err := json.MarshalIndent(routes, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal routes: %w", err)
				}
				cmd.Println(string(payload))
				return nil
			}
			if len(routes) == 0 {
				cmd.Println("No exact-match routes configured.")
				return nil
			}
			for _, route := range routes {
				target := route.TargetType
				if target == "" {
					target = "*"
				}
				cmd.Printf("%q -> %s -[%s]-> %s\n",
					route.Question, route.StartNode, route.Relationship, target)
			}
			return nil
		},
	}
}
