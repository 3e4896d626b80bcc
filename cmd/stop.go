package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// stopCmd stops the loop started by the 'start' command.
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stops the indexing loop",
	Long:  `Stops the indexing loop, which is started previously by 'start' command.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("stop called.")

		// send a value to the 'quit' channel, defined in the root command file.
		quit <- true
		close(quit)
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
