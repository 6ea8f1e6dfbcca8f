package main

import (
	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove conversation sessions in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: withStore(func(cmd *cobra.Command, store ports.SessionStore, args []string) error {
		return cli.ListSessions(cmd.Context(), store, cmd.OutOrStdout())
	}),
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <conversation-id>",
	Short: "Show a session with its answer summary",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store ports.SessionStore, args []string) error {
		return cli.InspectSession(cmd.Context(), store, args[0], cmd.OutOrStdout())
	}),
}

var sessionRmCmd = &cobra.Command{
	Use:     "rm <conversation-id>",
	Aliases: []string{"delete"},
	Short:   "Remove a session",
	Args:    cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store ports.SessionStore, args []string) error {
		return cli.RemoveSession(cmd.Context(), store, args[0], cmd.OutOrStdout())
	}),
}

func withStore(fn func(*cobra.Command, ports.SessionStore, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, closer, err := cli.OpenStore(cfg)
		if closer != nil {
			defer closer.Close()
		}
		if err != nil {
			return err
		}
		return fn(cmd, store, args)
	}
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
}
