package main

import (
	"os"

	"github.com/velib-tools/rebalance/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
