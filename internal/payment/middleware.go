package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chess-api/internal/shared/metrics"
	"chess-api/internal/shared/telemetry"
)

const (
	headerPayment         = "X-PAYMENT"
	headerPaymentResponse = "X-PAYMENT-RESPONSE"

	msgVerifyFailed = "Payment verification failed"
	msgSettleFailed = "Payment settlement failed"
)

// Gate enforces payment for a single priced route.
type Gate struct {
	requirements Requirements
	facilitator  Facilitator
}

// RequiredResponse is the body of a 402 answer.
type RequiredResponse struct {
	X402Version int            `json:"x402Version"`
	Error       string         `json:"error"`
	Accepts     []Requirements `json:"accepts"`
	Payer       string         `json:"payer,omitempty"`
}

// NewGate builds a gate that charges route.Price on network, paid to payTo.
func NewGate(payTo, network string, route Route, facilitator Facilitator) (*Gate, error) {
	if facilitator == nil {
		return nil, errors.New("facilitator is required")
	}
	reqs, err := buildRequirements(payTo, network, route)
	if err != nil {
		return nil, err
	}
	return &Gate{requirements: reqs, facilitator: facilitator}, nil
}

// Requirements returns the gate's requirements for resource.
func (g *Gate) Requirements(resource string) Requirements {
	reqs := g.requirements
	reqs.Resource = resource
	return reqs
}

// Middleware rejects unpaid requests before the next handler runs and settles
// verified payments once the handler has produced a non-error response.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqs := g.Requirements(resourceURL(c.Request))

		header := c.GetHeader(headerPayment)
		if header == "" {
			metrics.IncPayment(metrics.PaymentRequired)
			g.reject(c, "X-PAYMENT header is required", reqs, "")
			return
		}

		payload, err := DecodeHeader(header)
		if err != nil {
			metrics.IncPayment(metrics.PaymentRejected)
			telemetry.Warn("payment.decode_failed", map[string]any{"error": err})
			g.reject(c, "Invalid or malformed payment header", reqs, "")
			return
		}
		if payload.Scheme != reqs.Scheme || payload.Network != reqs.Network {
			metrics.IncPayment(metrics.PaymentRejected)
			g.reject(c, "No matching payment requirements found", reqs, "")
			return
		}

		ctx := c.Request.Context()
		verified, err := g.facilitator.Verify(ctx, payload, reqs)
		if err != nil {
			metrics.IncPayment(metrics.PaymentRejected)
			telemetry.Error("payment.verify_failed", map[string]any{"error": err})
			g.reject(c, msgVerifyFailed, reqs, "")
			return
		}
		if !verified.IsValid {
			metrics.IncPayment(metrics.PaymentRejected)
			reason := verified.InvalidReason
			if reason == "" {
				reason = msgVerifyFailed
			}
			g.reject(c, reason, reqs, verified.Payer)
			return
		}
		metrics.IncPayment(metrics.PaymentVerified)
		c.Set("payer", verified.Payer)

		original := c.Writer
		buffered := newBufferedWriter(original)
		c.Writer = buffered
		defer func() { c.Writer = original }()
		c.Next()
		c.Writer = original

		if buffered.Status() >= http.StatusBadRequest {
			metrics.IncPayment(metrics.PaymentNotSettled)
			buffered.flushTo(original)
			return
		}

		settled, err := g.facilitator.Settle(ctx, payload, reqs)
		reason := msgSettleFailed
		if err == nil && !settled.Success {
			if settled.ErrorReason != "" {
				reason = settled.ErrorReason
			}
			err = errors.New(reason)
		}
		if err != nil {
			metrics.IncPayment(metrics.PaymentSettleFailed)
			telemetry.Error("payment.settle_failed", map[string]any{"error": err, "payer": verified.Payer})
			g.reject(c, reason, reqs, verified.Payer)
			return
		}
		metrics.IncPayment(metrics.PaymentSettled)

		encoded, err := EncodeSettlement(settled)
		if err == nil {
			original.Header().Set(headerPaymentResponse, encoded)
		}
		telemetry.Info("payment.settled", map[string]any{
			"payer":       settled.Payer,
			"transaction": settled.Transaction,
			"network":     settled.Network,
		})
		buffered.flushTo(original)
	}
}

func (g *Gate) reject(c *gin.Context, message string, reqs Requirements, payer string) {
	c.AbortWithStatusJSON(http.StatusPaymentRequired, RequiredResponse{
		X402Version: X402Version,
		Error:       message,
		Accepts:     []Requirements{reqs},
		Payer:       payer,
	})
}
