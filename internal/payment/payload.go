package payment

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Payload is the decoded X-PAYMENT header.
type Payload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

// VerifyResponse is the facilitator's answer to /verify.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse is the facilitator's answer to /settle.
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer,omitempty"`
}

var errMalformedHeader = errors.New("invalid or malformed payment header")

// DecodeHeader parses a base64 encoded X-PAYMENT header.
func DecodeHeader(header string) (Payload, error) {
	header = strings.TrimSpace(header)
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(header)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", errMalformedHeader, err)
		}
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", errMalformedHeader, err)
	}
	if p.X402Version != X402Version {
		return Payload{}, fmt.Errorf("%w: unsupported x402Version %d", errMalformedHeader, p.X402Version)
	}
	if p.Scheme == "" || p.Network == "" || len(p.Payload) == 0 {
		return Payload{}, fmt.Errorf("%w: scheme, network and payload are required", errMalformedHeader)
	}
	return p, nil
}

// EncodeHeader is the inverse of DecodeHeader.
func EncodeHeader(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeSettlement renders the X-PAYMENT-RESPONSE header value.
func EncodeSettlement(s SettleResponse) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
