package cmd

import (
	"os"

	"github.com/1IxI1/sc-indexer/domain/config"

	"github.com/spf13/cobra"
)

var cfgFile string

// quit stops the tickers started by the 'start' command.
var quit = make(chan bool)

var rootCmd = &cobra.Command{
	Use:   "sc-indexer",
	Short: "Smart contract indexer",
	Long: `Indexes known smart contract types from the source archive into a
derived accounting database: pool summaries, per-nominator balances and an
append-only booking history.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

func initConfig() {
	config.ReadConfig(cfgFile)
}
