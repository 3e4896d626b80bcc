package main

import "github.com/1IxI1/sc-indexer/cmd"

func main() {
	cmd.Execute()
}
