package main

import (
	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the question graph as a Mermaid flowchart",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var store ports.SessionStore
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID != "" {
			s, closer, err := cli.OpenStore(cfg)
			if closer != nil {
				defer closer.Close()
			}
			if err != nil {
				return err
			}
			store = s
		}

		return cli.Mermaid(cmd.Context(), cfg, store, sessionID, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the position of this conversation")
}

