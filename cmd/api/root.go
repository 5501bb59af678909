package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chess-api",
	Short: "Pay-per-call chess best-move API",
	Long: `chess-api serves GET /best-move, which forwards a FEN position and search
depth to the Stockfish API and returns the best move. Each call is paid for
with an x402 payment header. Running without a subcommand starts the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}
