package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/secrets"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Bark lead email poller",
	Long: `Polls a mailbox for Bark lead notifications, extracts the lead fields,
looks up the customer's full email address, records the lead in a ledger and
sends a notification for every newly enriched lead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		logCfg := cfg.Log
		logCfg.File = cfg.Path(logCfg.File)
		if err := config.InitLogger(logCfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		secrets.Resolve(cfg)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ./data/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
