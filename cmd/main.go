package main

import (
	"os"

	"github.com/idfuturestars/StarGuideAI/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
