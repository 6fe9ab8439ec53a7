package main

import (
	"os"

	"ai-caller-be/cmd/kbctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
