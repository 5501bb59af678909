package stockfish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/notnil/chess"

	"chess-api/internal/shared/metrics"
	"chess-api/internal/shared/telemetry"
)

// DefaultBaseURL is the public Stockfish analysis endpoint.
const DefaultBaseURL = "https://stockfish.online/api/s/v2.php"

const maxBodyBytes = 1 << 20

// Analyzer computes the best move for a position.
type Analyzer interface {
	Analyze(ctx context.Context, fen, depth string) (Result, error)
}

// Client calls the Stockfish API over HTTP. Each Analyze call issues exactly
// one GET and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client. A zero timeout leaves the transport default in place.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse stockfish url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("stockfish url must be http(s), got %q", baseURL)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// BuildURL appends fen and depth as query parameters to the base URL.
func (c *Client) BuildURL(fen, depth string) string {
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + "fen=" + encodeComponent(fen) + "&depth=" + encodeComponent(depth)
}

// Analyze fetches and validates the analysis for fen at depth.
func (c *Client) Analyze(ctx context.Context, fen, depth string) (Result, error) {
	target := c.BuildURL(fen, depth)
	fenErr := checkFEN(fen)
	telemetry.Info("stockfish.request", map[string]any{
		"fen":           fen,
		"depth":         depth,
		"url":           target,
		"fen_parseable": fenErr == nil,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveUpstreamDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &UpstreamHTTPError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	telemetry.Info("stockfish.response", map[string]any{
		"status": resp.StatusCode,
		"body":   string(body),
	})

	result, err := ParseResult(body)
	if err != nil {
		fields := map[string]any{"valid": false}
		var sv *SchemaViolationError
		if errors.As(err, &sv) {
			fields["violations"] = sv.Violations
		}
		telemetry.Warn("stockfish.validation", fields)
		return nil, err
	}
	_, ok := result.(Success)
	telemetry.Info("stockfish.validation", map[string]any{"valid": true, "success": ok})
	if failure, isFailure := result.(Failure); isFailure {
		telemetry.Warn("stockfish.analysis_failed", failureFields(fen, failure, fenErr))
	}
	return result, nil
}

// statusText returns the reason phrase the server sent, falling back to the
// canonical text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// encodeComponent escapes s the way browsers encode a URI component (spaces as %20).
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// checkFEN parses fen locally. The result only feeds logs.
func checkFEN(fen string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("fen parser panic: %v", rec)
		}
	}()
	_, err = chess.FEN(fen)
	return err
}

// failureFields describes an upstream success:false next to the local parse
// verdict, so a rejected position can be told apart from an upstream fault.
func failureFields(fen string, failure Failure, fenErr error) map[string]any {
	fields := map[string]any{
		"fen":            fen,
		"upstream_error": failure.Error,
		"fen_parseable":  fenErr == nil,
	}
	if fenErr != nil {
		fields["fen_error"] = fenErr.Error()
	}
	return fields
}

var _ Analyzer = (*Client)(nil)
