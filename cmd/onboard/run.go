package main

import (
	"context"

	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/pkg/adapters/telegram"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Telegram bot",
	Long:  `Connects to Telegram with the configured token and answers chats through long polling until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireToken(); err != nil {
			return err
		}

		app, err := cli.Build(cfg, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		bot, err := telegram.Connect(cfg.Token)
		if err != nil {
			return err
		}
		app.Logger.Info("Authorized on Telegram", "account", bot.Self.UserName)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.RunTelegram(sigCtx, app, bot)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
