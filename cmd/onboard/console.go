package main

import (
	"context"
	"os"

	"github.com/aretw0/onboard/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Try the flow in the terminal",
	Long: `Runs one conversation over stdin and stdout. Lines starting with "/" are commands;
answers can be typed or picked by number.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		plain, _ := cmd.Flags().GetBool("plain")
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			plain = true
		}

		app, err := cli.Build(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.RunConsole(sigCtx, app, os.Stdin, os.Stdout, plain)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().Bool("plain", false, "Disable markdown rendering and colours")
}
