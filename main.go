package main

import (
	"os"

	"github.com/brainboost/codesnap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
