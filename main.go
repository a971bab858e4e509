package main

import (
	"os"

	"github.com/hayasedb/hayase-player/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
