package main

import (
	"os"

	"github.com/tpgship/tpgsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
