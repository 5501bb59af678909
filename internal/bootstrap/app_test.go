package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"chess-api/internal/shared/config"
	"chess-api/internal/shared/telemetry"
	"chess-api/internal/stockfish"
)

type stubAnalyzer struct{ calls int }

func (s *stubAnalyzer) Analyze(ctx context.Context, fen, depth string) (stockfish.Result, error) {
	s.calls++
	return stockfish.Success{Success: true, Evaluation: 0.1, BestMove: "e2e4"}, nil
}

func testConfig() config.Config {
	return config.Config{
		Port:           "4021",
		Env:            "dev",
		LogLevel:       "error",
		FacilitatorURL: "https://facilitator.example",
		PayTo:          "0xpay",
		Network:        "base-sepolia",
		Price:          "$0.01",
		StockfishURL:   "https://stockfish.example/api",
	}
}

func quietLogs(t *testing.T) {
	t.Helper()
	telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() {
		telemetry.SetOutput(os.Stdout)
		telemetry.SetLevel("info")
	})
}

func TestBuildWiresRoutes(t *testing.T) {
	quietLogs(t)
	an := &stubAnalyzer{}
	app, err := Build(testConfig(), WithAnalyzer(an))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cases := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/favicon.svg", http.StatusOK},
		{"/best-move?fen=8/8/8/8/8/8/8/8%20w%20-%20-%200%201", http.StatusPaymentRequired},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, w.Code)
		}
	}
	if an.calls != 0 {
		t.Fatalf("unpaid request must not reach the analyzer")
	}
}

func TestBuildRejectsUnknownNetwork(t *testing.T) {
	quietLogs(t)
	cfg := testConfig()
	cfg.Network = "dogecoin"
	_, err := Build(cfg, WithAnalyzer(&stubAnalyzer{}))
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestBuildRejectsBadPrice(t *testing.T) {
	quietLogs(t)
	cfg := testConfig()
	cfg.Price = "cheap"
	_, err := Build(cfg, WithAnalyzer(&stubAnalyzer{}))
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestBuildRejectsBadStockfishURL(t *testing.T) {
	quietLogs(t)
	cfg := testConfig()
	cfg.StockfishURL = "ftp://stockfish.example"
	_, err := Build(cfg)
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) || !strings.Contains(err.Error(), "STOCKFISH_API_URL") {
		t.Fatalf("expected STOCKFISH_API_URL ConfigError, got %v", err)
	}
}

func TestManifest(t *testing.T) {
	reqs, err := Manifest(testConfig(), "https://chess.example")
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if reqs.Resource != "https://chess.example/best-move" {
		t.Fatalf("unexpected resource %q", reqs.Resource)
	}
	if reqs.MaxAmountRequired != "10000" || reqs.PayTo != "0xpay" {
		t.Fatalf("unexpected requirements: %+v", reqs)
	}
}
