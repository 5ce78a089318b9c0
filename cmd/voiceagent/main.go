package main

import (
	"os"

	"github.com/naeemakhtar23/voiceagent/cmd/voiceagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
