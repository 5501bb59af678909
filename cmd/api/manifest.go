package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"chess-api/internal/bootstrap"
	"chess-api/internal/shared/config"
	"chess-api/internal/shared/server"
)

var manifestBaseURL string

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the payment requirements advertised for /best-move",
	RunE:  runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.Flags().StringVar(&manifestBaseURL, "base-url", "", "Public base URL of the service (default http://localhost:<PORT>)")
}

func runManifest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	baseURL := manifestBaseURL
	if baseURL == "" {
		baseURL = "http://localhost" + server.Addr(cfg.Port)
	}
	reqs, err := bootstrap.Manifest(cfg, baseURL)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(reqs)
}
