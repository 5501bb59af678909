package stockfish

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"chess-api/internal/shared/telemetry"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func quietLogs(t *testing.T) {
	t.Helper()
	telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32, *atomic.Value) {
	t.Helper()
	quietLogs(t)
	var calls atomic.Int32
	var lastQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		lastQuery.Store(r.URL.RawQuery)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/api/s/v2.php", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, &calls, &lastQuery
}

func TestBuildURLEncodesFENOnce(t *testing.T) {
	client, err := NewClient("https://stockfish.example/api/s/v2.php", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	fens := []string{
		startFEN,
		"8/8/8/8/8/8/8/K6k w - - 0 1",
		"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
		"not a fen & depth=99",
	}
	for _, fen := range fens {
		got := client.BuildURL(fen, "10")
		if c := strings.Count(got, encodeComponent(fen)); c != 1 {
			t.Fatalf("expected encoded fen exactly once in %q, got %d", got, c)
		}
		parsed, err := url.Parse(got)
		if err != nil {
			t.Fatalf("parse built url: %v", err)
		}
		q := parsed.Query()
		if len(q["fen"]) != 1 || q.Get("fen") != fen {
			t.Fatalf("fen query = %v, want %q", q["fen"], fen)
		}
		if len(q["depth"]) != 1 || q.Get("depth") != "10" {
			t.Fatalf("depth query = %v, want 10", q["depth"])
		}
	}
}

func TestBuildURLKeepsExistingQuery(t *testing.T) {
	client, err := NewClient("https://stockfish.example/api?key=abc", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got := client.BuildURL("k", "12")
	if got != "https://stockfish.example/api?key=abc&fen=k&depth=12" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	if _, err := NewClient("ftp://stockfish.example", 0); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestAnalyzeSuccessPassThrough(t *testing.T) {
	client, calls, lastQuery := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"evaluation":0.5,"bestmove":"e2e4","mate":null}`))
	})

	result, err := client.Analyze(context.Background(), startFEN, "10")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	success, ok := result.(Success)
	if !ok {
		t.Fatalf("expected Success, got %T", result)
	}
	if success.Evaluation != 0.5 || success.BestMove != "e2e4" || success.Mate != nil {
		t.Fatalf("unexpected result %+v", success)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", calls.Load())
	}
	q, _ := url.ParseQuery(lastQuery.Load().(string))
	if q.Get("fen") != startFEN || q.Get("depth") != "10" {
		t.Fatalf("unexpected upstream query %v", q)
	}
}

func TestAnalyzeFailureVariant(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid fen"}`))
	})

	result, err := client.Analyze(context.Background(), "garbage", "10")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	failure, ok := result.(Failure)
	if !ok || failure.Error != "invalid fen" {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestAnalyzeUpstreamHTTPError(t *testing.T) {
	client, calls, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	})

	_, err := client.Analyze(context.Background(), startFEN, "10")
	var httpErr *UpstreamHTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected UpstreamHTTPError, got %v", err)
	}
	if httpErr.StatusCode != 503 || httpErr.StatusText != "Service Unavailable" {
		t.Fatalf("unexpected error %+v", httpErr)
	}
	if err.Error() != "Stockfish API returned 503: Service Unavailable" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries, got %d calls", calls.Load())
	}
}

func TestAnalyzeSchemaViolation(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"evaluation":"not-a-number"}`))
	})

	_, err := client.Analyze(context.Background(), startFEN, "10")
	var sv *SchemaViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("expected SchemaViolationError, got %v", err)
	}
	if len(sv.Violations) == 0 {
		t.Fatalf("expected violations")
	}
}

func TestAnalyzeMalformedBodyIsSchemaViolation(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":tru`))
	})

	_, err := client.Analyze(context.Background(), startFEN, "10")
	var sv *SchemaViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("expected SchemaViolationError, got %v", err)
	}
}

func TestAnalyzeTransportError(t *testing.T) {
	quietLogs(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client, err := NewClient(base, 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Analyze(context.Background(), startFEN, "10")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to reach Stockfish API: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCheckFEN(t *testing.T) {
	if err := checkFEN(startFEN); err != nil {
		t.Fatalf("expected start position to parse, got %v", err)
	}
	if err := checkFEN("definitely not a fen"); err == nil {
		t.Fatalf("expected garbage to be rejected")
	}
}

func TestAnalyzeLogsRawPayloadAndFailureDiagnostics(t *testing.T) {
	var logs bytes.Buffer
	telemetry.SetOutput(&logs)
	telemetry.SetLevel("info")
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"Invalid FEN"}`))
	}))
	defer upstream.Close()

	client, err := NewClient(upstream.URL, 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Analyze(context.Background(), "not a fen", "10"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	out := logs.String()
	for _, want := range []string{
		`"msg":"stockfish.response"`,
		`Invalid FEN`,
		`"msg":"stockfish.analysis_failed"`,
		`"fen_error"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in logs, got %s", want, out)
		}
	}
}
