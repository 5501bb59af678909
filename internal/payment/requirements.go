package payment

import (
	"fmt"
	"math/big"
	"net/http"
	"strings"
)

// X402Version is the protocol version spoken by the gate.
const X402Version = 1

const (
	schemeExact              = "exact"
	defaultMaxTimeoutSeconds = 60
)

// Network describes the settlement asset on a supported chain.
type Network struct {
	Asset    string
	Name     string
	Version  string
	Decimals int
}

var networks = map[string]Network{
	"base-sepolia":   {Asset: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", Name: "USDC", Version: "2", Decimals: 6},
	"base":           {Asset: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Name: "USD Coin", Version: "2", Decimals: 6},
	"avalanche-fuji": {Asset: "0x5425890298aed601595a70AB815c96711a31Bc65", Name: "USD Coin", Version: "2", Decimals: 6},
	"avalanche":      {Asset: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", Name: "USD Coin", Version: "2", Decimals: 6},
}

// LookupNetwork returns the settlement asset for a network id.
func LookupNetwork(id string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Network{}, fmt.Errorf("unsupported network %q", id)
	}
	return n, nil
}

// Requirements is what a client must satisfy to access a gated resource.
type Requirements struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Asset             string            `json:"asset"`
	OutputSchema      map[string]any    `json:"outputSchema,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Route describes a priced endpoint and its discovery metadata.
type Route struct {
	Price             string
	Description       string
	MimeType          string
	MaxTimeoutSeconds int
	OutputSchema      map[string]any
}

// ParsePrice converts a dollar price such as "$0.01" into atomic units of an
// asset with the given number of decimals.
func ParsePrice(price string, decimals int) (string, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(price), "$"))
	if raw == "" {
		return "", fmt.Errorf("price is empty")
	}
	amount, ok := new(big.Rat).SetString(raw)
	if !ok {
		return "", fmt.Errorf("invalid price %q", price)
	}
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("price must be positive, got %q", price)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	amount.Mul(amount, new(big.Rat).SetInt(scale))
	if !amount.IsInt() {
		return "", fmt.Errorf("price %q is finer than %d decimals", price, decimals)
	}
	return amount.Num().String(), nil
}

// RequirementsFor builds the requirements a gate would advertise for resource.
func RequirementsFor(payTo, network string, route Route, resource string) (Requirements, error) {
	reqs, err := buildRequirements(payTo, network, route)
	if err != nil {
		return Requirements{}, err
	}
	reqs.Resource = resource
	return reqs, nil
}

func buildRequirements(payTo, networkID string, route Route) (Requirements, error) {
	if strings.TrimSpace(payTo) == "" {
		return Requirements{}, fmt.Errorf("payTo address is required")
	}
	network, err := LookupNetwork(networkID)
	if err != nil {
		return Requirements{}, err
	}
	amount, err := ParsePrice(route.Price, network.Decimals)
	if err != nil {
		return Requirements{}, err
	}
	mimeType := route.MimeType
	if mimeType == "" {
		mimeType = "application/json"
	}
	timeout := route.MaxTimeoutSeconds
	if timeout <= 0 {
		timeout = defaultMaxTimeoutSeconds
	}
	return Requirements{
		Scheme:            schemeExact,
		Network:           strings.ToLower(strings.TrimSpace(networkID)),
		MaxAmountRequired: amount,
		Description:       route.Description,
		MimeType:          mimeType,
		PayTo:             payTo,
		MaxTimeoutSeconds: timeout,
		Asset:             network.Asset,
		OutputSchema:      route.OutputSchema,
		Extra: map[string]string{
			"name":    network.Name,
			"version": network.Version,
		},
	}, nil
}

// resourceURL reconstructs the absolute URL the client requested, without the query.
func resourceURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host + r.URL.Path
}
