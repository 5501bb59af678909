package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Facilitator verifies and settles payments on the gate's behalf.
type Facilitator interface {
	Verify(ctx context.Context, payload Payload, req Requirements) (VerifyResponse, error)
	Settle(ctx context.Context, payload Payload, req Requirements) (SettleResponse, error)
}

// HTTPFacilitator talks to a remote facilitator service.
type HTTPFacilitator struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFacilitator constructs a facilitator client for baseURL.
func NewHTTPFacilitator(baseURL string, timeout time.Duration) (*HTTPFacilitator, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("facilitator url is required")
	}
	return &HTTPFacilitator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type facilitatorRequest struct {
	X402Version         int          `json:"x402Version"`
	PaymentPayload      Payload      `json:"paymentPayload"`
	PaymentRequirements Requirements `json:"paymentRequirements"`
}

// Verify checks that payload satisfies req without moving funds.
func (f *HTTPFacilitator) Verify(ctx context.Context, payload Payload, req Requirements) (VerifyResponse, error) {
	var out VerifyResponse
	if err := f.post(ctx, "/verify", payload, req, &out); err != nil {
		return VerifyResponse{}, err
	}
	return out, nil
}

// Settle submits the payment for settlement.
func (f *HTTPFacilitator) Settle(ctx context.Context, payload Payload, req Requirements) (SettleResponse, error) {
	var out SettleResponse
	if err := f.post(ctx, "/settle", payload, req, &out); err != nil {
		return SettleResponse{}, err
	}
	return out, nil
}

func (f *HTTPFacilitator) post(ctx context.Context, path string, payload Payload, req Requirements, out any) error {
	body, err := json.Marshal(facilitatorRequest{
		X402Version:         X402Version,
		PaymentPayload:      payload,
		PaymentRequirements: req,
	})
	if err != nil {
		return fmt.Errorf("facilitator %s encode: %w", path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("facilitator %s: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("facilitator %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("facilitator %s read: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("facilitator %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("facilitator %s response parse: %w", path, err)
	}
	return nil
}

var _ Facilitator = (*HTTPFacilitator)(nil)
