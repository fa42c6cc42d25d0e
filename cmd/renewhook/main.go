package main

import (
	"os"

	"github.com/krbops/renewhook/cmd/renewhook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
