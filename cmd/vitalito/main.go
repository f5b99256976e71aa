package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/vitalito/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "vitalito",
	Short: "Terminal health assistant with prescription capture",
	Long: `Vitalito is a conversational health assistant for the terminal.

Available subcommands:
  chat     - Open the conversation UI (default)
  mock-api - Serve a local mock of the chat backend`,
	SilenceUsage: true,
	RunE:         runChat,
}

func main() {
	config.LoadDotEnv()

	rootCmd.AddCommand(chatCmd, mockAPICmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
