package main

import (
	"os"

	"github.com/kverne/parkcast/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
