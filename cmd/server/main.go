package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/referydo/internal/config"
)

const programName = "referydo"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
	cfg        config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Escrow mediation service for clients, talents and scouts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, "")
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file (default $ESCROW_CONFIG_PATH)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalFlags.debug {
			loaded.Log.Level = "debug"
		}
		cfg = loaded
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(apikeyCommand())
	rootCmd.AddCommand(ledgerCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
