package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1IxI1/sc-indexer/domain/config"

	"github.com/spf13/cobra"
)

// startCmd represents the index command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the indexing loop",
	Long:  `Starts the indexing loop. To stop it, run 'stop' command.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("start called.")

		defaultDependencyInject()

		indexTicker := schedule(index, config.GetIndexInterval(), quit)

		signal.Ignore()
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		s := <-stop
		log.Printf("Got signal '%v', stopping", s)

		indexTicker.Stop()
	},
}

func schedule(task func(), interval time.Duration, done chan bool) *time.Ticker {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {

			case <-ticker.C:
				ticker.Stop()
				task()
				ticker.Reset(interval)

			case <-done:
				return
			}
		}
	}()
	return ticker
}

func index() {
	// A checkpoint that cannot be read or written is fatal: without a
	// trustworthy watermark the next cycle could silently skip accounts.
	if err := indexInteractor.RunCycle(); err != nil {
		log.Fatalf("🔴 index cycle - %v\n", err.Error())
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}
