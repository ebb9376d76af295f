package main

import (
	"os"

	"github.com/bunkasai/festival/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
