package main

import (
	"os"

	"chess-api/internal/shared/telemetry"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		telemetry.Error("command.failed", map[string]any{"error": err})
		os.Exit(1)
	}
}
